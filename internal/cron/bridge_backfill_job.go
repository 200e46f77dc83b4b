package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

const bridgeBackfillJobName = "sales-order-backfill"

// Promoter promotes submitted draft orders that still lack a sales order.
type Promoter interface {
	PromotePending(ctx context.Context, limit int) (int, error)
}

// BridgeBackfillParams configure the backfill job.
type BridgeBackfillParams struct {
	Logger   *logger.Logger
	Promoter Promoter
	Limit    int
}

type bridgeBackfillJob struct {
	logg     *logger.Logger
	promoter Promoter
	limit    int
}

// NewBridgeBackfillJob builds the job that creates sales orders for drafts
// whose customer was assigned after checkout.
func NewBridgeBackfillJob(params BridgeBackfillParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Promoter == nil {
		return nil, fmt.Errorf("promoter required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	return &bridgeBackfillJob{logg: params.Logger, promoter: params.Promoter, limit: limit}, nil
}

func (j *bridgeBackfillJob) Name() string {
	return bridgeBackfillJobName
}

func (j *bridgeBackfillJob) Run(ctx context.Context) error {
	promoted, err := j.promoter.PromotePending(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("promote pending orders: %w", err)
	}
	if promoted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "promoted", promoted), "cron.sales_orders_backfilled")
	}
	return nil
}
