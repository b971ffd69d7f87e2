package telemetry

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mbot.go/pkg/mbot"
)

// Reading is a sensor reading in SensorReport.
type Reading struct {
	Value float64 `protobuf:"fixed64,1,opt,name=value,proto3" json:"value,omitempty"`
	Valid bool    `protobuf:"varint,2,opt,name=valid,proto3" json:"valid,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Reading) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Reading) Reset() { *m = Reading{} }

// String implements proto.Message.
func (m *Reading) String() string { return proto.CompactTextString(m) }

// SensorReport is published when readings or the robot state change.
type SensorReport struct {
	RobotID      string   `protobuf:"bytes,1,opt,name=robot_id,json=robotId,proto3" json:"robot_id,omitempty"`
	Timestamp    int64    `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Alive        bool     `protobuf:"varint,3,opt,name=alive,proto3" json:"alive,omitempty"`
	Distance     *Reading `protobuf:"bytes,4,opt,name=distance,proto3" json:"distance,omitempty"`
	Light        *Reading `protobuf:"bytes,5,opt,name=light,proto3" json:"light,omitempty"`
	Button       *Reading `protobuf:"bytes,6,opt,name=button,proto3" json:"button,omitempty"`
	LineFollower *Reading `protobuf:"bytes,7,opt,name=line_follower,json=lineFollower,proto3" json:"line_follower,omitempty"`
	LeftSpeed    int32    `protobuf:"varint,8,opt,name=left_speed,json=leftSpeed,proto3" json:"left_speed,omitempty"`
	RightSpeed   int32    `protobuf:"varint,9,opt,name=right_speed,json=rightSpeed,proto3" json:"right_speed,omitempty"`
	Headlights   bool     `protobuf:"varint,10,opt,name=headlights,proto3" json:"headlights,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SensorReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SensorReport) Reset() { *m = SensorReport{} }

// String implements proto.Message.
func (m *SensorReport) String() string { return proto.CompactTextString(m) }

// SetSensors fills readings from a snapshot.
func (m *SensorReport) SetSensors(s mbot.Snapshot) *SensorReport {
	m.Distance = newReading(s.Distance)
	m.Light = newReading(s.Light)
	m.Button = newReading(s.Button)
	m.LineFollower = newReading(s.LineFollower)
	return m
}

// SameAs compares everything except Timestamp.
func (m *SensorReport) SameAs(other *SensorReport) bool {
	if other == nil {
		return false
	}
	a, b := *m, *other
	a.Timestamp, b.Timestamp = 0, 0
	return proto.Equal(&a, &b)
}

// DecodeSensorReport decodes a published payload.
func DecodeSensorReport(payload []byte) (*SensorReport, error) {
	var m SensorReport
	if err := proto.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func newReading(r mbot.Reading) *Reading {
	if !r.Valid {
		return nil
	}
	return &Reading{Value: r.Value, Valid: true}
}
