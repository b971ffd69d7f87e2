package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/mbot.go/pkg/car"
	fx "github.com/robotalks/mbot.go/pkg/framework"
	"github.com/robotalks/mbot.go/pkg/input"
	"github.com/robotalks/mbot.go/pkg/mbot"
	"github.com/robotalks/mbot.go/pkg/telemetry"
)

func init() {
	mbot.SetupFlags()
	car.SetupFlags()
	input.SetupFlags()
	telemetry.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	drv := mbot.Default().NewDriver()
	sensors := &mbot.Sensors{}
	conf := car.Default()

	loop := fx.NewLoop()
	loop.Interval = conf.Interval()
	source := input.Default().AddSource(loop)
	ctl := conf.NewController(drv, source, sensors)
	loop.Add(ctl)

	if tconf := telemetry.Default(); tconf.Enabled() {
		pub, err := tconf.NewPublisher(sensors, drv, ctl)
		if err != nil {
			glog.Exit(err)
		}
		glog.Infof("telemetry on %s", pub.Topic())
		loop.Add(pub)
	}

	loop.AddFinalizer(fx.FinalizerFunc(func(context.Context) error {
		return drv.Disconnect()
	}))
	glog.Infof("driving mBot on %s at %v Hz", mbot.Default().Port, conf.Rate)
	loop.RunOrFail()
}
