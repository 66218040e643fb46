//go:build !cuda

package accel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_NoAcceleratorBuild(t *testing.T) {
	dev, err := Detect()
	assert.Nil(t, dev)
	assert.ErrorIs(t, err, ErrAcceleratorNotAvailable)
	assert.False(t, Available(dev))
}

func TestAvailable(t *testing.T) {
	assert.False(t, Available(nil))
}
