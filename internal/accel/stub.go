//go:build !cuda

package accel

import "errors"

var ErrAcceleratorNotAvailable = errors.New("accelerator support not enabled in this build")

// Detect returns the accelerator device, or ErrAcceleratorNotAvailable for
// builds without accelerator support. Callers treat the error as
// informational and skip accelerator steps.
func Detect() (Device, error) {
	return nil, ErrAcceleratorNotAvailable
}
