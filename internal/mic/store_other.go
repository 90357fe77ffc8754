//go:build !linux && !windows

package mic

func newPlatformStore() (Store, error) {
	return nil, ErrUnsupported
}
