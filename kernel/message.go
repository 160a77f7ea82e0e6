package kernel

import "encoding/binary"

// TaskID identifies a task within a host. 255 means "unspecified".
type TaskID uint8

// HostID identifies a host. 255 means "all hosts" (broadcast, unused until
// cross-host messaging ships).
type HostID uint8

const (
	TaskIDUnspecified TaskID = 255
	AllHosts          HostID = 255
)

// MessageType tags the semantic meaning of a Message. User tags occupy
// 0-49; system tags occupy 50-99. When addressed to the interrupt demux,
// tags 0-28 are reinterpreted as a GPIO number rather than a semantic tag.
type MessageType uint8

const (
	MsgTest      MessageType = 50
	MsgPing      MessageType = 51
	MsgEcho      MessageType = 52
	MsgLogNotify MessageType = 53
	MsgLogError  MessageType = 54

	MsgSetSystemState       MessageType = 55
	MsgSetTaskState         MessageType = 56
	MsgSetTaskPriority      MessageType = 57
	MsgSetTaskSleep         MessageType = 58
	MsgSetTaskWakeUp        MessageType = 59
	MsgSetTaskDebug         MessageType = 60
	MsgWakeAllTasks         MessageType = 61
	MsgDedicateToTask       MessageType = 62
	MsgSubscribe            MessageType = 63 // reserved, no cross-host transport
	MsgUnsubscribe          MessageType = 64 // reserved, no cross-host transport

	MsgSetTimer           MessageType = 65
	MsgCancelTimer        MessageType = 66
	MsgCancelTimerBySeqNr MessageType = 67
)

// IRQUnsubscribe is the sentinel event mask carried in Message.Primary that
// asks the interrupt demux to drop a subscription.
const IRQUnsubscribe uint32 = 0

// MessageWireSize is the encoded size of Message on the wire, matching the
// in-memory field order exactly.
const MessageWireSize = 1 + 1 + 1 + 1 + 1 + 4 + 4 + 8

// Message is the fixed-layout envelope carried by every ring buffer.
//
// Payload words may carry an integer or, for internal deliveries such as
// software timer registration, an opaque handle; ownership of anything a
// payload word references belongs to the sender until the recipient deletes
// the message.
type Message struct {
	SenderHost      HostID
	SenderTask      TaskID
	RecipientHost   HostID
	RecipientTask   TaskID
	Type            MessageType
	Primary         uint32
	Secondary       uint32
	TimestampMicros uint64
}

// Encode packs the message into its little-endian wire layout.
func (m Message) Encode() [MessageWireSize]byte {
	var buf [MessageWireSize]byte
	buf[0] = byte(m.SenderHost)
	buf[1] = byte(m.SenderTask)
	buf[2] = byte(m.RecipientHost)
	buf[3] = byte(m.RecipientTask)
	buf[4] = byte(m.Type)
	binary.LittleEndian.PutUint32(buf[5:9], m.Primary)
	binary.LittleEndian.PutUint32(buf[9:13], m.Secondary)
	binary.LittleEndian.PutUint64(buf[13:21], m.TimestampMicros)
	return buf
}

// DecodeMessage unpacks a message from its little-endian wire layout.
func DecodeMessage(buf []byte) Message {
	var m Message
	if len(buf) < MessageWireSize {
		return m
	}
	m.SenderHost = HostID(buf[0])
	m.SenderTask = TaskID(buf[1])
	m.RecipientHost = HostID(buf[2])
	m.RecipientTask = TaskID(buf[3])
	m.Type = MessageType(buf[4])
	m.Primary = binary.LittleEndian.Uint32(buf[5:9])
	m.Secondary = binary.LittleEndian.Uint32(buf[9:13])
	m.TimestampMicros = binary.LittleEndian.Uint64(buf[13:21])
	return m
}

// PackSubscription encodes a GPIO subscription's pull-down flag and
// anti-bounce window into the Secondary payload word:
// pull_down<<24 | anti_bounce&0xFFFFFF.
func PackSubscription(pullDown bool, antiBounce uint32) uint32 {
	v := antiBounce & 0x00FFFFFF
	if pullDown {
		v |= 0x01000000
	}
	return v
}

// UnpackSubscription reverses PackSubscription.
func UnpackSubscription(spec uint32) (pullDown bool, antiBounce uint32) {
	return spec&0x01000000 != 0, spec & 0x00FFFFFF
}
