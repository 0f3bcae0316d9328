package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"nutrition-bot/config"
	"nutrition-bot/internal/models"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (db *PostgresDB) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	query := `
        INSERT INTO users (user_id, chat_id, username, goal, daily_calorie_target, protein_target,
                           carbs_target, fat_target, is_pregnant, trimester, is_premium)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (user_id) DO UPDATE
        SET chat_id = $2, username = $3, goal = $4, daily_calorie_target = $5, protein_target = $6,
            carbs_target = $7, fat_target = $8, is_pregnant = $9, trimester = $10, is_premium = $11,
            updated_at = NOW()
        RETURNING created_at, updated_at
    `

	err := db.pool.QueryRow(ctx, query,
		p.UserID, p.ChatID, p.Username, string(p.Goal), p.DailyCalorieTarget, p.ProteinTarget,
		p.CarbsTarget, p.FatTarget, p.IsPregnant, string(p.Trimester), p.IsPremium,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
        SELECT user_id, chat_id, username, goal, daily_calorie_target, protein_target, carbs_target,
               fat_target, is_pregnant, trimester, is_premium, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `

	var p models.UserProfile
	var goal, trimester string
	err := db.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.ChatID, &p.Username, &goal, &p.DailyCalorieTarget, &p.ProteinTarget,
		&p.CarbsTarget, &p.FatTarget, &p.IsPregnant, &trimester, &p.IsPremium,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "profile "+userID)
	}
	p.Goal = models.Goal(goal)
	p.Trimester = models.Trimester(trimester)
	return &p, nil
}

// SetPremium flips the premium flag after a completed checkout.
func (db *PostgresDB) SetPremium(ctx context.Context, userID string, premium bool) error {
	tag, err := db.pool.Exec(ctx, `
        UPDATE users SET is_premium = $2, updated_at = NOW() WHERE user_id = $1
    `, userID, premium)
	if err != nil {
		return fmt.Errorf("failed to update premium flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", userID, models.ErrNotFound)
	}
	return nil
}

func (db *PostgresDB) SaveMeal(ctx context.Context, m *models.Meal) error {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return fmt.Errorf("failed to encode meal items: %w", err)
	}
	var grade []byte
	if m.Grade != nil {
		if grade, err = json.Marshal(m.Grade); err != nil {
			return fmt.Errorf("failed to encode grade: %w", err)
		}
	}

	query := `
        INSERT INTO meals (id, user_id, logged_at, meal_type, description, items,
                           calories, protein, carbs, fat, grade)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err = db.pool.Exec(ctx, query,
		m.ID, m.UserID, m.LoggedAt, string(m.MealType), m.Description, items,
		m.Totals.Calories, m.Totals.Protein, m.Totals.Carbs, m.Totals.Fat, grade,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal: %w", err)
	}
	return nil
}

// SaveGrade overwrites the grade stored with a meal.
func (db *PostgresDB) SaveGrade(ctx context.Context, mealID string, grade models.GradeData) error {
	raw, err := json.Marshal(grade)
	if err != nil {
		return fmt.Errorf("failed to encode grade: %w", err)
	}
	tag, err := db.pool.Exec(ctx, `UPDATE meals SET grade = $2 WHERE id = $1`, mealID, raw)
	if err != nil {
		return fmt.Errorf("failed to save grade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("meal %s: %w", mealID, models.ErrNotFound)
	}
	return nil
}

const mealColumns = `id, user_id, logged_at, meal_type, description, items, calories, protein, carbs, fat, grade`

func scanMeal(row pgx.Row) (*models.Meal, error) {
	var m models.Meal
	var mealType string
	var items, grade []byte
	err := row.Scan(
		&m.ID, &m.UserID, &m.LoggedAt, &mealType, &m.Description, &items,
		&m.Totals.Calories, &m.Totals.Protein, &m.Totals.Carbs, &m.Totals.Fat, &grade,
	)
	if err != nil {
		return nil, err
	}
	m.MealType = models.MealType(mealType)
	if err := json.Unmarshal(items, &m.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items of meal %s: %w", m.ID, err)
	}
	if len(grade) > 0 {
		m.Grade = &models.GradeData{}
		if err := json.Unmarshal(grade, m.Grade); err != nil {
			return nil, fmt.Errorf("failed to decode grade of meal %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func (db *PostgresDB) GetMeal(ctx context.Context, mealID string) (*models.Meal, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, mealID)
	m, err := scanMeal(row)
	if err != nil {
		return nil, notFound(err, "meal "+mealID)
	}
	return m, nil
}

func (db *PostgresDB) queryMeals(ctx context.Context, query string, args ...interface{}) ([]models.Meal, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}
	return meals, nil
}

// MealsSince returns a user's meals logged at or after since, oldest first.
func (db *PostgresDB) MealsSince(ctx context.Context, userID string, since time.Time) ([]models.Meal, error) {
	return db.queryMeals(ctx, `
        SELECT `+mealColumns+`
        FROM meals
        WHERE user_id = $1 AND logged_at >= $2
        ORDER BY logged_at ASC
    `, userID, since)
}

// RecentMeals returns up to limit of a user's meals, most recent first.
func (db *PostgresDB) RecentMeals(ctx context.Context, userID string, limit int) ([]models.Meal, error) {
	return db.queryMeals(ctx, `
        SELECT `+mealColumns+`
        FROM meals
        WHERE user_id = $1
        ORDER BY logged_at DESC
        LIMIT $2
    `, userID, limit)
}

func (db *PostgresDB) SavePayment(ctx context.Context, payment *models.Payment) error {
	query := `
        INSERT INTO payments (user_id, amount, currency, stripe_payment_id, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	err := db.pool.QueryRow(ctx, query,
		payment.UserID, payment.Amount, payment.Currency,
		payment.StripePaymentID, payment.Status,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (db *PostgresDB) UpdatePaymentStatus(ctx context.Context, stripePaymentID string, status string) error {
	query := `
        UPDATE payments
        SET status = $2, updated_at = NOW()
        WHERE stripe_payment_id = $1
    `

	tag, err := db.pool.Exec(ctx, query, stripePaymentID, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", stripePaymentID, models.ErrNotFound)
	}
	return nil
}
