package hdf5

import (
	"go.uber.org/zap"

	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
)

// SetLogger routes the storage library's diagnostics to l. Nothing is
// logged by default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	h5lib.SetLogger(l)
}
