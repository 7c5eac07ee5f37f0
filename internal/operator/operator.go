package operator

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/VaibhavRohilla/plinko/internal/models"
)

// Operators are the only principals allowed to request targeted drops:
// outcome targeting exists for calibration and provable-fairness audits,
// not for players.

// GetOperator retrieves an operator account by name.
func GetOperator(db *sqlx.DB, name string) (*models.Operator, error) {
	var op models.Operator
	err := db.Get(&op, `SELECT id, name, token_hash, created_at FROM operators WHERE name=$1`, name)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyToken checks a plaintext token against the stored hash.
func VerifyToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// CreateOperator creates or rotates an operator account (used for seeding).
func CreateOperator(db *sqlx.DB, name, plainToken string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO operators (name, token_hash, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET token_hash = EXCLUDED.token_hash
	`, name, string(hashed))
	return err
}
