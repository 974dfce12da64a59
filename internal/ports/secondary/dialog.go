package secondary

import "context"

// Dialog asks the operator a yes/no question. A "no" answer is (false, nil);
// an error means no answer could be obtained.
type Dialog interface {
	Confirm(ctx context.Context, question string) (bool, error)
}
