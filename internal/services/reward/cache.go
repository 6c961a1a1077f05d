package reward

import "context"

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) GetBalance(context.Context, string) (int, bool, error) { return 0, false, nil }
func (NoopCache) SetBalance(context.Context, string, int) error         { return nil }
func (NoopCache) InvalidateBalance(context.Context, string) error       { return nil }
