package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/internal/service"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// nopTransport 本地基准专用：不出网，固定成功
type nopTransport struct{}

var _ mailer.Transport = nopTransport{}

func (nopTransport) Deliver(ctx context.Context, to, subject, htmlBody, textBody string) error {
	return nil
}

func main() {
	N := 5000
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}
	BATCH := 500
	if s := os.Getenv("BATCH"); s != "" {
		if b, err := strconv.Atoi(s); err == nil && b > 0 {
			BATCH = b
		}
	}

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
	must(0, db.AutoMigrate(&model.User{}, &model.EmailQueue{}))

	user := model.User{ID: "u0", Username: "u0", Email: "u0@example.com"}
	must(0, db.Create(&user).Error)

	queueRepo := repository.NewEmailQueueRepository(db, 3)
	ctx := context.Background()

	// seed queue: alternate instant / digest priorities, all due now
	now := time.Now()
	seedStart := time.Now()
	for i := 0; i < N; i++ {
		prio := model.PriorityInstant
		etype := model.EmailTypeInstant
		if i%2 == 1 {
			prio = model.PriorityDigest
			etype = model.EmailTypeDigest
		}
		e := &model.EmailQueue{
			ID:           uuid.New().String(),
			RecipientID:  user.ID,
			EmailType:    etype,
			Subject:      fmt.Sprintf("bench %d", i),
			BodyHTML:     "<p>bench</p>",
			BodyText:     "bench",
			Status:       model.EmailStatusPending,
			Priority:     prio,
			ScheduledFor: now,
		}
		must(0, queueRepo.Create(ctx, e))
	}
	fmt.Printf("seeded %d entries in %v\n", N, time.Since(seedStart))

	userRepo := repository.NewUserRepository(db)
	// 限速调高避免基准被 limiter 支配
	d := service.NewDispatcher(queueRepo, userRepo, nopTransport{}, 1e6, time.Hour)

	var batchLats []time.Duration
	total := 0
	drainStart := time.Now()
	for {
		t0 := time.Now()
		res := must(d.ProcessQueue(ctx, BATCH))
		if res.Total == 0 {
			break
		}
		batchLats = append(batchLats, time.Since(t0))
		total += res.Sent + res.Failed
	}
	elapsed := time.Since(drainStart)

	sort.Slice(batchLats, func(i, j int) bool { return batchLats[i] < batchLats[j] })
	pct := func(p float64) time.Duration {
		if len(batchLats) == 0 {
			return 0
		}
		idx := int(p * float64(len(batchLats)-1))
		return batchLats[idx]
	}

	fmt.Printf("drained %d entries in %v (%.0f/s)\n", total, elapsed, float64(total)/elapsed.Seconds())
	fmt.Printf("batch latency p50=%v p90=%v p99=%v\n", pct(0.50), pct(0.90), pct(0.99))
}
