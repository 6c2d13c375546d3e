package controllers

import (
	"errors"

	"github.com/san-kum/dxlhw/internal/hwif"
)

var ErrNoItem = errors.New("controllers: forward controller needs an item")

// Forward writes a raw integer command to one control-table item of every
// joint, e.g. the LED.
type Forward struct {
	base
	Item    string
	Value   int32
	handles []hwif.Int32Handle
}

func NewForward(name string, joints []string, item string, value int32) *Forward {
	return &Forward{base: base{name: name, typ: TypeForward, joints: joints}, Item: item, Value: value}
}

func (f *Forward) Init(hw *hwif.RobotHW) error {
	if f.Item == "" {
		return ErrNoItem
	}
	if len(f.joints) == 0 {
		return ErrNoJoints
	}
	f.handles = make([]hwif.Int32Handle, 0, len(f.joints))
	for _, j := range f.joints {
		h, err := hw.Int32(j + "/" + f.Item)
		if err != nil {
			return err
		}
		f.handles = append(f.handles, h)
	}
	return nil
}

func (f *Forward) Starting(t float64) {}
func (f *Forward) Stopping(t float64) {}

func (f *Forward) Update(t, dt float64) {
	for _, h := range f.handles {
		h.SetCommand(f.Value)
	}
}
