package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/VaibhavRohilla/plinko/internal/accounts"
	"github.com/VaibhavRohilla/plinko/internal/config"
	"github.com/VaibhavRohilla/plinko/internal/models"
)

const (
	recentResultsKey = "plinko:recent"
	eventsChannel    = "plinko_events"

	// Capacity of the settlement queue. Landings arrive at most a few per
	// tick; the buffer only has to absorb a slow database, not sustained
	// throughput.
	settlementBuffer = 256
)

// settlementEvent carries one engine outcome from the simulation tick to the
// settlement worker. Exactly one of the two fields is set.
type settlementEvent struct {
	resolution *Resolution
	void       *VoidedBall
}

// GameManager owns the engine and settles its outcomes against the ledger,
// the drop history table and the Redis recent-results list. The engine
// callbacks only enqueue: all database and Redis work happens on the
// settlement goroutine so a slow backend can never stall the physics tick.
type GameManager struct {
	Engine *Engine
	db     *sqlx.DB
	rdb    *redis.Client
	config *config.Config
	events chan settlementEvent
	cancel context.CancelFunc
}

// Manager is the global game manager instance.
var Manager *GameManager

// InitializeManager builds the engine from configured board defaults, wires
// settlement callbacks and starts the simulation loop plus the settlement
// worker.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewGameManager(db, rdb, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	Manager.cancel = cancel
	go Manager.runSettlement(ctx)
	go Manager.Engine.Run(ctx)
	log.Printf("[ENGINE] simulation loop started (rows=%d risk=%s)", Manager.Engine.Config().Rows, Manager.Engine.Config().Risk)
}

// NewGameManager creates a manager without starting the loops (tests drive
// the engine with Step and the settlement queue directly).
func NewGameManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *GameManager {
	engine := NewEngine(BoardConfig{
		Rows:   cfg.DefaultRows,
		Risk:   Risk(cfg.DefaultRisk),
		Width:  cfg.CanvasWidth,
		Height: cfg.CanvasHeight,
	}, time.Now().UnixNano())

	gm := &GameManager{
		Engine: engine,
		db:     db,
		rdb:    rdb,
		config: cfg,
		events: make(chan settlementEvent, settlementBuffer),
	}
	engine.OnResolve(gm.handleResolution)
	engine.OnVoid(gm.handleVoid)
	return gm
}

// Shutdown stops the loops and releases all bodies.
func (gm *GameManager) Shutdown() {
	if gm.cancel != nil {
		gm.cancel()
	}
	gm.Engine.Stop()
}

// handleResolution runs inside the engine tick; it must not block.
func (gm *GameManager) handleResolution(r Resolution) {
	gm.enqueue(settlementEvent{resolution: &r})
}

// handleVoid runs inside the engine tick; it must not block.
func (gm *GameManager) handleVoid(v VoidedBall) {
	gm.enqueue(settlementEvent{void: &v})
}

func (gm *GameManager) enqueue(ev settlementEvent) {
	select {
	case gm.events <- ev:
	default:
		// Queue saturated: losing a settlement is better than freezing the
		// board, but it needs operator attention either way.
		log.Printf("[DROP] settlement queue full, event dropped: %+v", ev)
	}
}

// runSettlement drains engine outcomes and applies them to Postgres and
// Redis, one at a time, off the simulation goroutine.
func (gm *GameManager) runSettlement(ctx context.Context) {
	log.Println("[DROP] settlement worker started")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-gm.events:
			if ev.resolution != nil {
				gm.settleResolution(*ev.resolution)
			} else if ev.void != nil {
				gm.settleVoid(*ev.void)
			}
		}
	}
}

// RecordDrop inserts the pending drop row and returns its id so the
// settlement path can reference the exact row.
func (gm *GameManager) RecordDrop(playerID int, bet float64, targetBin *int, steered bool) (int, error) {
	if gm.db == nil {
		return 0, nil
	}
	cfg := gm.Engine.Config()
	var target sql.NullInt64
	if targetBin != nil {
		target = sql.NullInt64{Int64: int64(*targetBin), Valid: true}
	}
	var id int
	err := gm.db.Get(&id, `
		INSERT INTO drops (player_id, rows, risk, bet_amount, target_bin, steered, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,'pending',NOW()) RETURNING id`,
		playerID, cfg.Rows, string(cfg.Risk), bet, target, steered,
	)
	if err != nil {
		return 0, fmt.Errorf("insert drop: %w", err)
	}
	return id, nil
}

// settleResolution writes one landed ball's outcome to its drop row, credits
// the payout and publishes the result.
func (gm *GameManager) settleResolution(r Resolution) {
	log.Printf("[DROP] ball %d resolved: bin=%d mult=%.2f payout=%.2f player=%d drop=%d", r.BallID, r.Bin, r.Multiplier, r.Payout, r.PlayerID, r.DropID)

	gm.settleDrop(r)

	if r.Payout > 0 && gm.db != nil && r.PlayerID > 0 {
		if err := accounts.CreditPayout(gm.db, r.PlayerID, r.Payout, dropRef(r.DropID)); err != nil {
			log.Printf("[DB] Failed to credit payout for drop %d: %v", r.DropID, err)
		}
	}

	gm.publishResult(map[string]interface{}{
		"type":       "drop_resolved",
		"ball_id":    r.BallID,
		"player_id":  r.PlayerID,
		"bin":        r.Bin,
		"multiplier": r.Multiplier,
		"bet":        r.Bet,
		"payout":     r.Payout,
		"start_x":    r.StartX,
		"steered":    r.Steered,
		"rows":       r.Rows,
		"risk":       r.Risk,
	})
}

// settleVoid refunds the stake of a forcibly removed ball. A void is an
// operational event, not a user-facing loss.
func (gm *GameManager) settleVoid(v VoidedBall) {
	log.Printf("[DROP] ball %d voided (%s), refunding %.2f to player %d drop=%d", v.BallID, v.Reason, v.Bet, v.PlayerID, v.DropID)

	if gm.db != nil && v.DropID > 0 {
		if _, err := gm.db.Exec(
			`UPDATE drops SET status='void', settled_at=NOW() WHERE id=$1 AND status='pending'`,
			v.DropID,
		); err != nil {
			log.Printf("[DB] Failed to mark drop %d void: %v", v.DropID, err)
		}
	}
	if gm.db != nil && v.PlayerID > 0 && v.Bet > 0 {
		if err := accounts.RefundBet(gm.db, v.PlayerID, v.Bet, dropRef(v.DropID)); err != nil {
			log.Printf("[DB] Failed to refund voided bet for player %d: %v", v.PlayerID, err)
		}
	}

	gm.publishResult(map[string]interface{}{
		"type":    "drop_voided",
		"ball_id": v.BallID,
		"reason":  v.Reason,
	})
}

// settleDrop updates the drop row the resolution belongs to, plus the player
// aggregates. Balls carry their drops.id from enqueue time, so concurrent
// drops by one player can never settle onto each other's rows.
func (gm *GameManager) settleDrop(r Resolution) {
	if gm.db == nil || r.DropID <= 0 {
		return
	}

	if _, err := gm.db.Exec(`
		UPDATE drops SET bin=$1, multiplier=$2, payout=$3, start_x=$4, status='settled', settled_at=NOW()
		WHERE id=$5 AND status='pending'`,
		r.Bin, r.Multiplier, r.Payout, r.StartX, r.DropID,
	); err != nil {
		log.Printf("[DB] Failed to settle drop %d: %v", r.DropID, err)
		return
	}

	if _, err := gm.db.Exec(`
		UPDATE players SET total_drops = total_drops + 1, total_wagered = total_wagered + $1,
			total_won = total_won + $2, last_active = NOW() WHERE id = $3`,
		r.Bet, r.Payout, r.PlayerID,
	); err != nil {
		log.Printf("[DB] Failed to update player aggregates for %d: %v", r.PlayerID, err)
	}
}

func dropRef(id int) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

// publishResult mirrors an event to the capped recent list and the pub/sub
// channel the websocket layer subscribes to.
func (gm *GameManager) publishResult(payload map[string]interface{}) {
	if gm.rdb == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal event: %v", err)
		return
	}

	ctx := context.Background()
	if payload["type"] == "drop_resolved" {
		pipe := gm.rdb.Pipeline()
		pipe.LPush(ctx, recentResultsKey, data)
		pipe.LTrim(ctx, recentResultsKey, 0, int64(gm.config.RecentResultsSize-1))
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("[REDIS] Failed to record recent result: %v", err)
		}
	}
	if err := gm.rdb.Publish(ctx, eventsChannel, data).Err(); err != nil {
		log.Printf("[REDIS] Failed to publish event: %v", err)
	}
}

// RecentResults returns up to limit recent resolutions, newest first, from
// the Redis mirror, falling back to the drops table when Redis is down.
func (gm *GameManager) RecentResults(limit int) ([]map[string]interface{}, error) {
	if limit <= 0 || limit > gm.config.RecentResultsSize {
		limit = gm.config.RecentResultsSize
	}

	if gm.rdb != nil {
		raw, err := gm.rdb.LRange(context.Background(), recentResultsKey, 0, int64(limit-1)).Result()
		if err == nil {
			out := make([]map[string]interface{}, 0, len(raw))
			for _, item := range raw {
				var m map[string]interface{}
				if err := json.Unmarshal([]byte(item), &m); err == nil {
					out = append(out, m)
				}
			}
			return out, nil
		}
		log.Printf("[REDIS] recent results unavailable, falling back to DB: %v", err)
	}

	if gm.db == nil {
		return nil, nil
	}
	var drops []models.Drop
	if err := gm.db.Select(&drops, `SELECT id, player_id, rows, risk, bet_amount, target_bin, bin, multiplier, payout, start_x, steered, status, created_at, settled_at FROM drops WHERE status='settled' ORDER BY settled_at DESC LIMIT $1`, limit); err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(drops))
	for _, d := range drops {
		out = append(out, map[string]interface{}{
			"type":       "drop_resolved",
			"player_id":  d.PlayerID,
			"bin":        d.Bin.Int64,
			"multiplier": d.Multiplier,
			"bet":        d.BetAmount,
			"payout":     d.Payout,
			"rows":       d.Rows,
			"risk":       d.Risk,
		})
	}
	return out, nil
}

// RateLimitDrop enforces the per-player drop rate via Redis SetNX. Allowed
// when Redis is unavailable: rate limiting is best-effort.
func (gm *GameManager) RateLimitDrop(playerID int) bool {
	if gm.rdb == nil || gm.config.DropRateLimitSecs <= 0 {
		return true
	}
	key := fmt.Sprintf("drop_rate:%d", playerID)
	ok, err := gm.rdb.SetNX(context.Background(), key, "1", time.Duration(gm.config.DropRateLimitSecs)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}
