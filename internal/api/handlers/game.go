package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/VaibhavRohilla/plinko/internal/accounts"
	"github.com/VaibhavRohilla/plinko/internal/config"
	"github.com/VaibhavRohilla/plinko/internal/game"
	"github.com/VaibhavRohilla/plinko/internal/operator"
)

// DropBall debits the stake and queues a ball on the board. Natural drops
// are open to any session; targeted drops (target_bin set) are gated behind
// operator credentials because they fix the outcome.
func DropBall(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := sessionPlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session required"})
			return
		}

		var req struct {
			BetAmount float64 `json:"bet_amount"`
			TargetBin *int    `json:"target_bin"`
			Strategy  string  `json:"strategy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.BetAmount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bet must not be negative"})
			return
		}
		if req.BetAmount > cfg.MaxBetAmount {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bet exceeds maximum", "max_bet": cfg.MaxBetAmount})
			return
		}

		boardCfg := game.Manager.Engine.Config()
		strategy := game.StrategySteer
		if req.TargetBin != nil {
			if !operatorAuthorized(db, c) {
				c.JSON(http.StatusForbidden, gin.H{"error": "Targeted drops require operator credentials"})
				return
			}
			if *req.TargetBin < 0 || *req.TargetBin > boardCfg.Rows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "target_bin out of range", "bins": boardCfg.Rows + 1})
				return
			}
			switch req.Strategy {
			case "", string(game.StrategySteer):
				strategy = game.StrategySteer
			case string(game.StrategyOffset):
				strategy = game.StrategyOffset
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown strategy"})
				return
			}
		}

		if !game.Manager.RateLimitDrop(playerID) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many drops, slow down"})
			return
		}

		if req.BetAmount > 0 {
			balance, err := accounts.Balance(db, playerID)
			if err != nil {
				log.Printf("[GAME] Failed to read balance for player %d: %v", playerID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place bet"})
				return
			}
			if balance < req.BetAmount {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance", "balance": balance})
				return
			}
		}

		dropID, err := game.Manager.RecordDrop(playerID, req.BetAmount, req.TargetBin, req.TargetBin != nil)
		if err != nil {
			log.Printf("[GAME] Failed to record drop for player %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place bet"})
			return
		}

		if req.BetAmount > 0 {
			ref := dropRef(dropID)
			if err := accounts.PlaceBet(db, playerID, req.BetAmount, ref); err != nil {
				log.Printf("[GAME] Failed to debit bet for player %d: %v", playerID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place bet"})
				return
			}
		}

		if err := game.Manager.Engine.Drop(game.DropRequest{
			PlayerID:  playerID,
			DropID:    dropID,
			Bet:       req.BetAmount,
			TargetBin: req.TargetBin,
			Strategy:  strategy,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "queued",
			"drop_id": dropID,
			"board":   boardCfg,
		})
	}
}

// GetBoard returns the live board configuration and derived geometry, enough
// for a client to render the peg field and bins without simulating.
func GetBoard(c *gin.Context) {
	cfg := game.Manager.Engine.Config()
	layout := game.Manager.Engine.Geometry()
	table, err := game.MultiplierTable(cfg.Rows, cfg.Risk)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"board":          cfg,
		"bin_centers":    layout.BinCenters(),
		"bin_boundaries": layout.BinBoundaries(),
		"multipliers":    table,
		"spacing":        layout.Spacing,
		"row_gap":        layout.RowGap,
		"live_balls":     game.Manager.Engine.LiveBalls(),
	})
}

// UpdateBoardConfig swaps rows/risk on the live board. Operator-only: the
// change voids and refunds every in-flight ball.
func UpdateBoardConfig(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !operatorAuthorized(db, c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operator credentials required"})
			return
		}

		var req struct {
			Rows int    `json:"rows"`
			Risk string `json:"risk"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.Rows < game.MinRows || req.Rows > game.MaxRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rows out of range", "min": game.MinRows, "max": game.MaxRows})
			return
		}
		risk := game.Risk(req.Risk)
		if !game.ValidRisk(risk) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown risk level"})
			return
		}

		current := game.Manager.Engine.Config()
		current.Rows = req.Rows
		current.Risk = risk
		game.Manager.Engine.SetConfig(current)

		log.Printf("[GAME] Board config change queued: rows=%d risk=%s", req.Rows, risk)
		c.JSON(http.StatusOK, gin.H{"status": "queued", "board": current})
	}
}

// GetHistory returns recent resolved drops, newest first.
func GetHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	results, err := game.Manager.RecentResults(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// GetBalance returns the session player's ledger balance.
func GetBalance(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := sessionPlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session required"})
			return
		}
		balance, err := accounts.Balance(db, playerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": balance})
	}
}

// DepositFunds credits the session player's account from the house account.
// Stands in for a payment provider integration.
func DepositFunds(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := sessionPlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session required"})
			return
		}
		var req struct {
			Amount float64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
			return
		}
		if err := accounts.Deposit(db, playerID, req.Amount); err != nil {
			log.Printf("[GAME] Failed deposit for player %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deposit"})
			return
		}
		balance, _ := accounts.Balance(db, playerID)
		c.JSON(http.StatusOK, gin.H{"balance": balance})
	}
}

// GetEngineStats exposes aggregate drop counters, mainly for operator
// dashboards and RTP spot checks.
func GetEngineStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !operatorAuthorized(db, c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operator credentials required"})
			return
		}
		stats := game.Manager.Engine.Stats()
		c.JSON(http.StatusOK, gin.H{
			"drops":        stats.Drops,
			"total_bet":    stats.TotalBet,
			"total_payout": stats.TotalPayout,
			"live_balls":   game.Manager.Engine.LiveBalls(),
		})
	}
}

// operatorAuthorized checks the X-Operator-Name / X-Operator-Token headers
// against the operators table.
func operatorAuthorized(db *sqlx.DB, c *gin.Context) bool {
	name := c.GetHeader("X-Operator-Name")
	token := c.GetHeader("X-Operator-Token")
	if name == "" || token == "" || db == nil {
		return false
	}
	op, err := operator.GetOperator(db, name)
	if err != nil {
		log.Printf("[AUTH] Operator lookup failed for %q: %v", name, err)
		return false
	}
	return operator.VerifyToken(op.TokenHash, token)
}
