package protocol

// Packet is implemented by every concrete packet type. Fields returns the
// packet's wire layout as an ordered list of bindings into the receiver, so
// the same list drives both encoding and decoding.
type Packet interface {
	ID() int32
	Name() string
	Fields() []Field
}

// Field is a named binding between a packet struct member and its wire type.
type Field struct {
	Name  string
	codec fieldCodec
}

type fieldCodec interface {
	typeName() string
	appendTo(dst []byte) []byte
	decodeFrom(src []byte) (int, error)
}

type binding[T any] struct {
	ptr *T
	typ Type[T]
}

func (b binding[T]) typeName() string { return b.typ.Name() }

func (b binding[T]) appendTo(dst []byte) []byte { return b.typ.Append(dst, *b.ptr) }

func (b binding[T]) decodeFrom(src []byte) (int, error) {
	v, n, err := b.typ.Decode(src)
	if err != nil {
		return 0, err
	}
	*b.ptr = v
	return n, nil
}

// Bind declares that ptr is encoded on the wire as typ under the given field name.
func Bind[T any](name string, ptr *T, typ Type[T]) Field {
	return Field{Name: name, codec: binding[T]{ptr: ptr, typ: typ}}
}

// TypeName returns the wire type name of the field.
func (f Field) TypeName() string {
	return f.codec.typeName()
}

// Marshal encodes the fields of p in declaration order. The packet id is not
// included; framing adds it.
func Marshal(p Packet) []byte {
	return AppendPacket(nil, p)
}

// AppendPacket is like Marshal but appends to dst.
func AppendPacket(dst []byte, p Packet) []byte {
	for _, f := range p.Fields() {
		dst = f.codec.appendTo(dst)
	}
	return dst
}

// Unmarshal decodes payload into p. Decoding stops at the first field that
// fails, which is reported as a *FieldError. Bytes left over after the last
// field are also an error.
func Unmarshal(p Packet, payload []byte) error {
	cursor := 0
	for _, f := range p.Fields() {
		n, err := f.codec.decodeFrom(payload[cursor:])
		if err != nil {
			return &FieldError{Packet: p.Name(), Field: f.Name, Type: f.TypeName(), Err: err}
		}
		cursor += n
	}
	if cursor != len(payload) {
		return &FieldError{Packet: p.Name(), Field: "<end>", Type: "payload", Err: ErrTrailingBytes}
	}
	return nil
}
