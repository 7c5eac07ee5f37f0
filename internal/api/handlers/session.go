package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"

	"github.com/VaibhavRohilla/plinko/internal/accounts"
	"github.com/VaibhavRohilla/plinko/internal/config"
	"github.com/VaibhavRohilla/plinko/internal/models"
)

// StartSession upserts the player for the given phone number, makes sure a
// ledger account exists and returns a signed session token.
func StartSession(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PhoneNumber string `json:"phone_number" binding:"required"`
			DisplayName string `json:"display_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number is required"})
			return
		}

		phone := normalizePhone(req.PhoneNumber)
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
			return
		}

		var player models.Player
		err := db.Get(&player, `
			INSERT INTO players (phone_number, display_name, last_active)
			VALUES ($1, $2, NOW())
			ON CONFLICT (phone_number) DO UPDATE SET last_active = NOW(),
				display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE players.display_name END
			RETURNING id, phone_number, display_name, created_at, total_drops, total_wagered, total_won, is_active, last_active`,
			phone, req.DisplayName,
		)
		if err != nil {
			log.Printf("[AUTH] Failed to upsert player %s: %v", phone, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}
		if !player.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
			return
		}

		account, err := accounts.GetOrCreateAccount(db, accounts.AccountPlayer, &player.ID)
		if err != nil {
			log.Printf("[AUTH] Failed to ensure account for player %d: %v", player.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}

		exp := time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)
		claims := jwt.MapClaims{
			"player_id": player.ID,
			"phone":     phone,
			"exp":       exp.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("[AUTH] Failed to sign session token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      signed,
			"expires_at": exp.Unix(),
			"player": gin.H{
				"id":           player.ID,
				"phone_number": player.PhoneNumber,
				"display_name": player.DisplayName,
				"total_drops":  player.TotalDrops,
			},
			"balance": account.Balance,
		})
	}
}

// RequireSession validates the Bearer token and stores the player id in the
// request context.
func RequireSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing session token"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session claims"})
			c.Abort()
			return
		}
		playerID, ok := claims["player_id"].(float64)
		if !ok || playerID <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session claims"})
			c.Abort()
			return
		}

		c.Set("player_id", int(playerID))
		c.Next()
	}
}

// sessionPlayerID pulls the authenticated player id from the gin context.
func sessionPlayerID(c *gin.Context) (int, bool) {
	v, exists := c.Get("player_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok && id > 0
}
