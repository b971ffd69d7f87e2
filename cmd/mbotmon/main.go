package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/robotalks/mbot.go/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	robotID = "+"
)

func init() {
	if val := os.Getenv("MBOT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&robotID, "robot-id", robotID, "Robot id to monitor, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := telemetry.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	q.Sub(telemetry.SensorsTopic(robotID), telemetry.Handler(func(topic string, payload []byte) {
		report, err := telemetry.DecodeSensorReport(payload)
		if err != nil {
			log.Printf("%s: bad report: %v", topic, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			time.Unix(0, report.Timestamp*int64(time.Millisecond)).Format(time.StampMilli),
			report.String())
	}))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}
