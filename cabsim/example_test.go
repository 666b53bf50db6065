package cabsim_test

import (
	"fmt"

	"github.com/gregorizeidler/Rigmaster-sub006/cabsim"
)

func ExampleSimulator_SetMicPosition() {
	s, err := cabsim.New(cabsim.StaticHost{Rate: 48000}, cabsim.WithThrottle(0))
	if err != nil {
		fmt.Println(err)
		return
	}

	_ = s.SetMicPosition(cabsim.SlotA, 50, 90, 1)

	info, _ := s.PositionInfo(cabsim.SlotA)
	fmt.Printf("notch %.0f Hz Q %.1f\n", info.Targets.NotchFreq, info.Targets.NotchQ)
	fmt.Printf("dry delay %.3f ms\n", s.DryDelay()*1000)
	// Output:
	// notch 5750 Hz Q 1.6
	// dry delay 1.458 ms
}

func ExampleCreateCabinet() {
	c, err := cabsim.CreateCabinet("4x12_vintage", "sm57", "center", 48000)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(c.Cabinet().Name)
	fmt.Println("stages", c.Len())
	// Output:
	// 4x12" Vintage 30
	// stages 13
}
