package customer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the requested customer does not exist.
	ErrNotFound = errors.New("customer not found")

	// ErrPhoneExists indicates the phone number is already registered.
	ErrPhoneExists = errors.New("phone number already registered")

	// ErrCustomerIDTaken indicates a generated customer id collided with an
	// existing one; callers regenerate and retry.
	ErrCustomerIDTaken = errors.New("customer id already taken")

	// ErrInsufficientBalance indicates the withdrawal exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Repository persists customers and their withdrawal transactions.
type Repository interface {
	Create(ctx context.Context, c Customer) error
	GetByID(ctx context.Context, customerID string) (Customer, error)
	GetByName(ctx context.Context, name string) (Customer, error)
	GetByPhone(ctx context.Context, phone string) (Customer, error)
	UpdatePhone(ctx context.Context, customerID, phone string) error

	// Withdraw debits the balance and appends the transaction record as one
	// atomic unit, returning the new balance. The debit only succeeds when
	// the balance covers the amount, so the balance never goes negative.
	Withdraw(ctx context.Context, customerID string, amount int64) (int64, error)

	Transactions(ctx context.Context, customerID string) ([]Transaction, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed customer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const customerColumns = `id, customer_id, name, phone, face_template, total_amount, min_limit, created_at`

// Create inserts a new customer, translating unique violations into domain errors.
func (r *PostgresRepository) Create(ctx context.Context, c Customer) error {
	rowID, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO customers (`+customerColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rowID, c.CustomerID, c.Name, c.Phone, c.FaceTemplate, c.TotalAmount, c.MinLimit, c.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "customers_customer_id_key" {
				return ErrCustomerIDTaken
			}
			return ErrPhoneExists
		}
		return err
	}
	return nil
}

// GetByID fetches a customer by its public customer id.
func (r *PostgresRepository) GetByID(ctx context.Context, customerID string) (Customer, error) {
	return r.getBy(ctx, `customer_id`, customerID)
}

// GetByName fetches a customer by name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (Customer, error) {
	return r.getBy(ctx, `name`, name)
}

// GetByPhone fetches a customer by phone number.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (Customer, error) {
	return r.getBy(ctx, `phone`, phone)
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE `+column+` = $1`, value)
	var (
		c         Customer
		rowID     uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&rowID, &c.CustomerID, &c.Name, &c.Phone, &c.FaceTemplate, &c.TotalAmount, &c.MinLimit, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	c.ID = rowID.String()
	c.CreatedAt = createdAt.UTC()
	return c, nil
}

// UpdatePhone changes the registered phone number, enforcing uniqueness.
func (r *PostgresRepository) UpdatePhone(ctx context.Context, customerID, phone string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE customers SET phone = $1 WHERE customer_id = $2`, phone, customerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPhoneExists
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Withdraw performs the conditional debit and appends the transaction record
// inside a single database transaction. The conditional UPDATE serializes
// concurrent withdrawals per customer: two attempts against a stale balance
// cannot both commit.
func (r *PostgresRepository) Withdraw(ctx context.Context, customerID string, amount int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE customers SET total_amount = total_amount - $1
        WHERE customer_id = $2 AND total_amount >= $1`, amount, customerID)
	if err != nil {
		return 0, err
	}
	if cmd.RowsAffected() == 0 {
		// Distinguish a missing customer from an uncovered amount.
		var balance int64
		err := tx.QueryRow(ctx, `SELECT total_amount FROM customers WHERE customer_id = $1`, customerID).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		if err != nil {
			return 0, err
		}
		return 0, ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, customer_id, amount, created_at)
        VALUES ($1, $2, $3, $4)`, uuid.New(), customerID, amount, time.Now().UTC()); err != nil {
		return 0, err
	}

	var newBalance int64
	if err := tx.QueryRow(ctx, `SELECT total_amount FROM customers WHERE customer_id = $1`, customerID).Scan(&newBalance); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Transactions lists the withdrawal history, newest first.
func (r *PostgresRepository) Transactions(ctx context.Context, customerID string) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, customer_id, amount, created_at
        FROM transactions WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		var (
			t         Transaction
			rowID     uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&rowID, &t.CustomerID, &t.Amount, &createdAt); err != nil {
			return nil, err
		}
		t.ID = rowID.String()
		t.CreatedAt = createdAt.UTC()
		result = append(result, t)
	}
	return result, rows.Err()
}
