package fbx

import (
	"bytes"
	"compress/zlib"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/mogaika/sceneimport/importer"
	"github.com/mogaika/sceneimport/utils"
)

// 21 bytes of magic, then 0x1a 0x00, then a u32 version.
const binaryMagic = "Kaydara FBX Binary  \x00"
const binaryHeaderSize = 23

func IsBinary(data []byte) bool {
	return len(data) > binaryHeaderSize && string(data[:len(binaryMagic)]) == binaryMagic
}

type binaryParser struct {
	r       *utils.Reader
	size    int
	version uint32
}

// ParseBinary tokenizes a binary FBX buffer into the generic tree.
func ParseBinary(data []byte) (*Node, uint32, error) {
	if !IsBinary(data) {
		return nil, 0, importer.Formatf("fbx", "binary magic not found")
	}

	r := utils.NewReader(data)
	if err := r.Skip(binaryHeaderSize); err != nil {
		return nil, 0, err
	}
	version, err := r.Uint32()
	if err != nil {
		return nil, 0, err
	}
	if version < 6400 {
		return nil, 0, importer.Formatf("fbx", "unsupported binary version %d (need >= 6400)", version)
	}

	p := &binaryParser{r: r, size: len(data), version: version}

	root := NewNode("")
	for {
		// the footer is shorter than the smallest node header
		if p.r.Remaining() < p.nullRecordSize() {
			break
		}
		node, err := p.parseNode()
		if err != nil {
			return nil, version, err
		}
		if node == nil {
			break
		}
		root.AddChild(node)
	}

	return root, version, nil
}

// FBX >= 7.5 widened the node header fields to 64 bit.
func (p *binaryParser) bigEndOffsets() bool { return p.version >= 7500 }

func (p *binaryParser) nullRecordSize() int {
	if p.bigEndOffsets() {
		return 25
	}
	return 13
}

func (p *binaryParser) readOffset() (int, error) {
	if p.bigEndOffsets() {
		v, err := p.r.Uint64()
		return int(v), err
	}
	v, err := p.r.Uint32()
	return int(v), err
}

// parseNode reads one node record. A record whose header is all zeroes
// is a NULL terminator and yields nil.
func (p *binaryParser) parseNode() (*Node, error) {
	endOffset, err := p.readOffset()
	if err != nil {
		return nil, err
	}
	numProperties, err := p.readOffset()
	if err != nil {
		return nil, err
	}
	if _, err := p.readOffset(); err != nil { // property list byte length
		return nil, err
	}
	nameLen, err := p.r.Uint8()
	if err != nil {
		return nil, err
	}
	name, err := p.r.String(int(nameLen))
	if err != nil {
		return nil, err
	}

	if endOffset == 0 {
		return nil, nil
	}
	if endOffset > p.size || endOffset < p.r.Pos() {
		return nil, importer.Structuralf("fbx", "node %q end offset 0x%x outside buffer (pos 0x%x, size 0x%x)",
			name, endOffset, p.r.Pos(), p.size)
	}

	node := NewNode(name)
	for i := 0; i < numProperties; i++ {
		prop, err := p.parseProperty()
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse property %d of node %q", i, name)
		}
		node.Properties = append(node.Properties, prop)
	}

	for p.r.Pos() < endOffset {
		child, err := p.parseNode()
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse child of node %q", name)
		}
		if child == nil {
			break
		}
		node.AddChild(child)
	}

	if p.r.Pos() > endOffset {
		return nil, importer.Structuralf("fbx", "node %q content overruns end offset 0x%x", name, endOffset)
	}
	if err := p.r.SkipTo(endOffset); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *binaryParser) parseProperty() (interface{}, error) {
	typeCode, err := p.r.Uint8()
	if err != nil {
		return nil, err
	}

	switch typeCode {
	case 'C':
		return p.r.Bool()
	case 'Y':
		return p.r.Int16()
	case 'I':
		return p.r.Int32()
	case 'L':
		return p.r.Int64()
	case 'F':
		return p.r.Float32()
	case 'D':
		return p.r.Float64()
	case 'S':
		n, err := p.r.Uint32()
		if err != nil {
			return nil, err
		}
		// keep the raw \x00\x01 scope separator, utils.FBXName
		// resolves it at use sites
		b, err := p.r.Bytes(int(n))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case 'R':
		n, err := p.r.Uint32()
		if err != nil {
			return nil, err
		}
		b, err := p.r.Bytes(int(n))
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, b)
		return out, nil
	case 'b', 'c', 'i', 'l', 'f', 'd':
		return p.parseArrayProperty(typeCode)
	default:
		return nil, importer.Structuralf("fbx", "unknown property type %q at offset 0x%x", typeCode, p.r.Pos()-1)
	}
}

func (p *binaryParser) parseArrayProperty(typeCode uint8) (interface{}, error) {
	arrayLen, err := p.r.Uint32()
	if err != nil {
		return nil, err
	}
	encoding, err := p.r.Uint32()
	if err != nil {
		return nil, err
	}
	compressedLen, err := p.r.Uint32()
	if err != nil {
		return nil, err
	}

	r := p.r
	if encoding == 1 {
		compressed, err := p.r.Bytes(int(compressedLen))
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to open deflated array")
		}
		defer zr.Close()
		inflated, err := ioutil.ReadAll(zr)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to inflate array")
		}
		r = utils.NewReader(inflated)
	} else if encoding != 0 {
		return nil, importer.Structuralf("fbx", "unknown array encoding %d", encoding)
	}

	n := int(arrayLen)
	switch typeCode {
	case 'b':
		return r.BoolArray(n)
	case 'c':
		return r.Uint8Array(n)
	case 'i':
		return r.Int32Array(n)
	case 'l':
		return r.Int64Array(n)
	case 'f':
		return r.Float32Array(n)
	case 'd':
		return r.Float64Array(n)
	}
	panic("unreachable")
}
