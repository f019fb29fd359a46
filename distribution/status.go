package distribution

import (
	"context"

	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/storage"
)

// allowedFrom lists, for each target status, the statuses it may be reached
// from. Nothing leads back to pending and nothing leaves completed.
var allowedFrom = map[storage.DistributionStatus][]storage.DistributionStatus{
	storage.DistributionTransferFailed: {storage.DistributionPendingCreatorTransfer},
	storage.DistributionCompleted: {
		storage.DistributionPendingCreatorTransfer,
		storage.DistributionTransferFailed,
	},
}

func ParseStatus(s string) (storage.DistributionStatus, bool) {
	switch st := storage.DistributionStatus(s); st {
	case storage.DistributionPendingCreatorTransfer, storage.DistributionTransferFailed, storage.DistributionCompleted:
		return st, true
	}
	return "", false
}

// AdvanceStatus moves the distribution of orderID to the given status. The
// check and the write happen in one conditional storage update, so two
// concurrent callers cannot both win.
func (r *Recorder) AdvanceStatus(ctx context.Context, orderID string, to storage.DistributionStatus, reason string) (*storage.Distribution, error) {
	from, ok := allowedFrom[to]
	if !ok {
		logging.Log.Warnf("DISTRIBUTION: status %s is not a valid target for order %s", to, orderID)
		return nil, storage.ErrInvalidStatusTransition
	}
	if to == storage.DistributionCompleted {
		reason = ""
	}
	if err := r.cfg.Store.UpdateStatus(ctx, orderID, from, to, reason); err != nil {
		return nil, err
	}
	logging.Log.Infof("DISTRIBUTION: order %s moved to %s", orderID, to)
	return r.cfg.Store.GetByOrder(ctx, orderID)
}
