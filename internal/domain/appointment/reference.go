package appointment

import (
	"context"
	"fmt"
	"math/rand"
)

const referenceAttempts = 5

// newBookingReference generates a reference like "AP482913" and retries on
// collision against existing references. Random suffixes alone are not
// unique enough at scale, so every candidate is checked before use.
func newBookingReference(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < referenceAttempts; i++ {
		ref := fmt.Sprintf("AP%06d", rand.Intn(1000000))
		taken, err := exists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check booking reference: %w", err)
		}
		if !taken {
			return ref, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique booking reference after %d attempts", referenceAttempts)
}
