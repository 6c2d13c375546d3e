package hardware_test

import (
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dxlhw/internal/actuator"
	"github.com/san-kum/dxlhw/internal/config"
	"github.com/san-kum/dxlhw/internal/dxl"
	"github.com/san-kum/dxlhw/internal/hardware"
	"github.com/san-kum/dxlhw/internal/hwif"
)

const period = 10 * time.Millisecond

func ctrls(names ...string) []hwif.ControllerInfo {
	infos := make([]hwif.ControllerInfo, len(names))
	for i, n := range names {
		infos[i] = hwif.ControllerInfo{Name: n}
	}
	return infos
}

func torque(bus *dxl.SimBus, id uint8) int32 {
	v, _ := bus.Register(id, dxl.ItemTorqueEnable)
	return v
}

func opMode(bus *dxl.SimBus, id uint8) int32 {
	v, _ := bus.Register(id, dxl.ItemOperatingMode)
	return v
}

var _ = Describe("Hardware", func() {
	var (
		cfg *config.Config
		bus *dxl.SimBus
		hw  *hwif.RobotHW
		h   *hardware.Hardware
	)

	BeforeEach(func() {
		cfg = config.GetPreset("dual_arm")
		var err error
		bus, err = hardware.NewSimBus(cfg)
		Expect(err).NotTo(HaveOccurred())
		hw = hwif.NewRobotHW()
		h, err = hardware.New(bus, hw, hardware.ActuatorConfigs(cfg), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		h.Close()
	})

	It("builds actuators in name order and registers their handles", func() {
		Expect(h.Names()).To(Equal([]string{"elbow", "shoulder"}))
		Expect(hw.Names(hwif.KindPosition)).To(Equal([]string{"elbow", "shoulder"}))
		Expect(hw.Names(hwif.KindInt32State)).To(ConsistOf("elbow/Present_Temperature", "shoulder/Present_Temperature"))
	})

	Describe("switching", func() {
		It("starts a mode from idle", func() {
			Expect(h.PrepareSwitch(ctrls("arm_position"), nil)).To(Succeed())
			h.DoSwitch(ctrls("arm_position"), nil)

			Expect(opMode(bus, 1)).To(Equal(dxl.OpModeCurrentBasedPosition))
			Expect(opMode(bus, 2)).To(Equal(dxl.OpModeExtendedPosition))
			Expect(torque(bus, 1)).To(Equal(int32(1)))
			Expect(torque(bus, 2)).To(Equal(int32(1)))
		})

		Context("with a mode active", func() {
			BeforeEach(func() {
				h.DoSwitch(ctrls("arm_position"), nil)
			})

			It("rejects starting a second mode without stopping the first", func() {
				err := h.PrepareSwitch(ctrls("arm_effort"), nil)
				Expect(err).To(MatchError(actuator.ErrInfeasibleSwitch))

				snaps := h.Snapshots()
				Expect(snaps[0].Mode).To(Equal(actuator.ModeExtendedPosition))
				Expect(snaps[1].Mode).To(Equal(actuator.ModeCurrentBasedPosition))
			})

			It("replaces the mode when the old controller stops", func() {
				Expect(h.PrepareSwitch(ctrls("arm_effort"), ctrls("arm_position"))).To(Succeed())
				h.DoSwitch(ctrls("arm_effort"), ctrls("arm_position"))

				for _, s := range h.Snapshots() {
					Expect(s.Mode).To(Equal(actuator.ModeCurrent))
				}
				Expect(opMode(bus, 1)).To(Equal(dxl.OpModeCurrent))
			})

			It("leaves the servos limp after teardown", func() {
				h.Close()
				Expect(torque(bus, 1)).To(Equal(int32(0)))
				Expect(torque(bus, 2)).To(Equal(int32(0)))

				Expect(h.PrepareSwitch(ctrls("arm_off"), nil)).To(MatchError(hardware.ErrClosed))
			})
		})

		It("ignores controllers without a mode", func() {
			Expect(h.PrepareSwitch(ctrls("not_mapped"), nil)).To(Succeed())
			h.DoSwitch(ctrls("not_mapped"), nil)
			for _, s := range h.Snapshots() {
				Expect(s.Mode).To(BeEmpty())
			}
		})
	})

	Describe("the tick cycle", func() {
		It("tracks position commands set through the handles", func() {
			h.DoSwitch(ctrls("arm_position"), nil)
			elbow, err := hw.Actuator(hwif.KindPosition, "elbow")
			Expect(err).NotTo(HaveOccurred())

			elbow.SetCommand(0.6)
			now := time.Unix(0, 0)
			for i := 0; i < 200; i++ {
				h.Write(now, period)
				bus.Step(period)
				now = now.Add(period)
				h.Read(now, period)
			}
			Expect(elbow.Position()).To(BeNumerically("~", 0.6, 0.01))
		})

		It("does nothing while idle", func() {
			h.Read(time.Now(), period)
			h.Write(time.Now(), period)
			Expect(bus.Transfers()).To(BeEmpty())
		})
	})

	Describe("concurrent use", func() {
		It("keeps one mode per actuator while switching against a running tick", func() {
			modes := map[string]map[string]string{
				"arm_position": {"elbow": actuator.ModeExtendedPosition, "shoulder": actuator.ModeCurrentBasedPosition},
				"arm_effort":   {"elbow": actuator.ModeCurrent, "shoulder": actuator.ModeCurrent},
			}

			var ticks atomic.Int64
			stop := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					now := time.Now()
					h.Read(now, period)
					h.Write(now, period)
					h.Snapshots()
					bus.Step(time.Millisecond)
					ticks.Add(1)
				}
			}()
			defer func() {
				close(stop)
				wg.Wait()
			}()

			Expect(h.PrepareSwitch(ctrls("arm_position"), nil)).To(Succeed())
			h.DoSwitch(ctrls("arm_position"), nil)

			from, to := "arm_position", "arm_effort"
			for i := 0; i < 40; i++ {
				Expect(h.PrepareSwitch(ctrls(from), nil)).To(MatchError(actuator.ErrInfeasibleSwitch))
				Expect(h.PrepareSwitch(ctrls(to), ctrls(from))).To(Succeed())
				h.DoSwitch(ctrls(to), ctrls(from))

				for _, s := range h.Snapshots() {
					Expect(s.Mode).To(Equal(modes[to][s.Name]))
				}
				from, to = to, from
			}

			Eventually(ticks.Load).Should(BeNumerically(">", 10))
		})
	})

	It("reboots every servo through a mode controller", func() {
		h.DoSwitch(ctrls("arm_reboot"), nil)
		Expect(bus.Reboots(1)).To(Equal(1))
		Expect(bus.Reboots(2)).To(Equal(1))
	})
})

var _ = Describe("New", func() {
	It("closes the actuators it already built when one fails", func() {
		cfg := config.GetPreset("dual_arm")
		bus, err := hardware.NewSimBus(cfg)
		Expect(err).NotTo(HaveOccurred())
		bus.Unplug(1)

		configs := hardware.ActuatorConfigs(cfg)
		robot := hwif.NewRobotHW()
		h, err := hardware.New(bus, robot, configs, nil)
		Expect(h).To(BeNil())
		Expect(err).To(MatchError(actuator.ErrServoNotFound))
		Expect(err.Error()).To(ContainSubstring("shoulder"))
		Expect(torque(bus, 2)).To(Equal(int32(0)))

		for _, k := range hwif.AllKinds() {
			Expect(robot.Names(k)).To(BeEmpty(), "kind %s", k)
		}

		bus.Plug(1)
		h, err = hardware.New(bus, robot, configs, nil)
		Expect(err).NotTo(HaveOccurred())
		defer h.Close()
		Expect(robot.Names(hwif.KindState)).To(Equal([]string{"elbow", "shoulder"}))
	})

	It("registers nothing when a handle name is already taken", func() {
		cfg := config.GetPreset("dual_arm")
		bus, err := hardware.NewSimBus(cfg)
		Expect(err).NotTo(HaveOccurred())

		robot := hwif.NewRobotHW()
		var pos, vel, eff float64
		Expect(robot.Register(hwif.Registration{
			Kind:   hwif.KindState,
			Handle: hwif.NewActuatorStateHandle("shoulder", &pos, &vel, &eff),
		})).To(Succeed())

		h, err := hardware.New(bus, robot, hardware.ActuatorConfigs(cfg), nil)
		Expect(h).To(BeNil())
		Expect(err).To(MatchError(hwif.ErrDuplicateHandle))
		Expect(robot.Names(hwif.KindState)).To(Equal([]string{"shoulder"}))
		Expect(robot.Names(hwif.KindPosition)).To(BeEmpty())
	})

	It("rejects a bus without the configured servo models", func() {
		cfg := config.GetPreset("single_xm")
		a := cfg.Actuators["joint1"]
		a.Model = "MX-28"
		cfg.Actuators["joint1"] = a

		_, err := hardware.NewSimBus(cfg)
		Expect(err).To(HaveOccurred())
	})
})
