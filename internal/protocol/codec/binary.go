package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/for-sale/internal/protocol"
)

// 二进制信封的字段号：
//
//	message Envelope {
//	  string type    = 1;
//	  bytes  payload = 2; // JSON 编码的 payload
//	}
const (
	fieldType    protowire.Number = 1
	fieldPayload protowire.Number = 2
)

// EncodeBinary 将消息编码为 protobuf 线格式
func EncodeBinary(msg *protocol.Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	b := make([]byte, 0, len(msg.Type)+len(msg.Payload)+8)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(msg.Type))
	if len(msg.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.Payload)
	}
	return b, nil
}

// DecodeBinary 从 protobuf 线格式解码消息，未知字段被跳过
func DecodeBinary(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := decodeBinaryInto(msg, data); err != nil {
		PutMessage(msg)
		return nil, err
	}
	return msg, nil
}

func decodeBinaryInto(msg *protocol.Message, data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldType && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return fmt.Errorf("decode type: %w", protowire.ParseError(m))
			}
			msg.Type = protocol.MessageType(s)
			data = data[m:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("decode payload: %w", protowire.ParseError(m))
			}
			msg.Payload = append([]byte(nil), v...)
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("skip field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	if msg.Type == "" {
		return errors.New("missing message type")
	}
	return nil
}

// Format 连接上使用的编码格式
type Format int

const (
	FormatJSON Format = iota
	FormatBinary
)

// WebSocket 子协议名
const (
	SubprotocolJSON     = "forsale.json"
	SubprotocolProtobuf = "forsale.protobuf"
)

// FormatForSubprotocol 根据协商出的子协议选择编码格式，未协商时使用 JSON
func FormatForSubprotocol(sub string) Format {
	if sub == SubprotocolProtobuf {
		return FormatBinary
	}
	return FormatJSON
}

// Marshal 按格式编码
func (f Format) Marshal(msg *protocol.Message) ([]byte, error) {
	if f == FormatBinary {
		return EncodeBinary(msg)
	}
	return Encode(msg)
}

// Unmarshal 按格式解码
func (f Format) Unmarshal(data []byte) (*protocol.Message, error) {
	if f == FormatBinary {
		return DecodeBinary(data)
	}
	return Decode(data)
}
