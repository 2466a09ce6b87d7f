package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpmweb/rpm-api/pkg/anchor"
)

// Anchor returns a hook that stores the payload digest and hands the receipt
// to save. A disabled anchor client is not a failure.
func Anchor(client anchor.Client, payload interface{}, save func(ctx context.Context, txHash string) error) Func {
	return func(ctx context.Context) error {
		txHash, err := client.Store(ctx, payload)
		if errors.Is(err, anchor.ErrDisabled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to anchor payload: %w", err)
		}
		if txHash == "" || save == nil {
			return nil
		}
		if err := save(ctx, txHash); err != nil {
			return fmt.Errorf("failed to save anchor receipt: %w", err)
		}
		return nil
	}
}
