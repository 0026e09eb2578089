package rl

import (
	"context"
	"fmt"

	"github.com/zeu5/forage-rl/types"
)

// EncodeState reads the feature vector as a base two number, first element
// being the most significant bit. The vector must have exactly bits entries.
func EncodeState(features []bool, bits int) (int, error) {
	if len(features) != bits {
		return 0, fmt.Errorf("%w: got %d, expected %d", types.ErrFeatureLength, len(features), bits)
	}
	index := 0
	for _, f := range features {
		index <<= 1
		if f {
			index |= 1
		}
	}
	return index, nil
}

// DecodeState is the inverse of EncodeState, zero padded to bits entries
func DecodeState(index, bits int) []bool {
	features := make([]bool, bits)
	for i := bits - 1; i >= 0; i-- {
		features[i] = index&1 == 1
		index >>= 1
	}
	return features
}

// Observer captures a front image and discretizes it into a state index
type Observer struct {
	driver   types.Driver
	detector types.Detector
	bits     int
}

func NewObserver(driver types.Driver, detector types.Detector, bits int) *Observer {
	return &Observer{
		driver:   driver,
		detector: detector,
		bits:     bits,
	}
}

func (o *Observer) State(ctx context.Context) (int, error) {
	img, err := o.driver.ImageFront(ctx)
	if err != nil {
		return 0, fmt.Errorf("capturing front image: %w", err)
	}
	return EncodeState(o.detector.Detect(img), o.bits)
}
