package svo

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

// .svo files reuse the .vox chunk framing: a magic and version, then chunks
// of id, body size, children size (always 0) and body.
//
//	HEAD  max_depth u8, 3 pad, size f32, word count u32, leaf count u32
//	NODE  word count x u64 packed words
//	LOFS  word count x u32 leaf offsets
//	LEAF  leaf count x u8 palette indices
const (
	SVOMagicNumber = "SVO "
	SVOVersion     = 1

	svoHeadSize = 16
)

var ErrNotSVO = errors.New("not a valid SVO file")

func WriteSVO(w io.Writer, p *octree.PackedTree[uint8]) error {
	if len(p.LeafOffsets) != len(p.Words) {
		return errors.Wrapf(octree.ErrCorruptTree, "%d leaf offsets for %d words", len(p.LeafOffsets), len(p.Words))
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(SVOMagicNumber)
	binary.Write(bw, binary.LittleEndian, int32(SVOVersion))

	head := make([]byte, svoHeadSize)
	head[0] = p.MaxDepth
	binary.LittleEndian.PutUint32(head[4:], math.Float32bits(p.Size))
	binary.LittleEndian.PutUint32(head[8:], uint32(len(p.Words)))
	binary.LittleEndian.PutUint32(head[12:], uint32(len(p.Leaves)))
	writeChunk(bw, "HEAD", head)

	writeChunk(bw, "NODE", p.Bytes())

	lofs := make([]byte, 4*len(p.LeafOffsets))
	for i, o := range p.LeafOffsets {
		binary.LittleEndian.PutUint32(lofs[i*4:], o)
	}
	writeChunk(bw, "LOFS", lofs)
	writeChunk(bw, "LEAF", p.Leaves)

	return errors.Wrap(bw.Flush(), "write svo")
}

func writeChunk(w *bufio.Writer, id string, body []byte) {
	w.WriteString(id)
	binary.Write(w, binary.LittleEndian, int32(len(body)))
	binary.Write(w, binary.LittleEndian, int32(0))
	w.Write(body)
}

func ReadSVO(r io.Reader) (*octree.PackedTree[uint8], error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if string(magic[:]) != SVOMagicNumber {
		return nil, ErrNotSVO
	}
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "read version")
	}
	if version != SVOVersion {
		return nil, errors.Errorf("unsupported svo version %d", version)
	}

	p := &octree.PackedTree[uint8]{}
	var words, leaves uint32
	haveHead := false
	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "read chunk id")
		}
		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, errors.Wrapf(err, "chunk %s size", chunkID[:])
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, errors.Wrapf(err, "chunk %s children", chunkID[:])
		}
		if chunkSize < 0 {
			return nil, errors.Errorf("chunk %s has negative size", chunkID[:])
		}
		id := string(chunkID[:])
		if id != "HEAD" && !haveHead {
			return nil, errors.Errorf("chunk %s before HEAD", id)
		}
		var want int64
		switch id {
		case "HEAD":
			want = svoHeadSize
		case "NODE":
			want = int64(words) * octree.PackedWordSize
		case "LOFS":
			want = int64(words) * 4
		case "LEAF":
			want = int64(leaves)
		default:
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return nil, errors.Wrapf(err, "skip chunk %s", id)
			}
			continue
		}
		if int64(chunkSize) != want {
			return nil, errors.Errorf("%s chunk has %d bytes, want %d", id, chunkSize, want)
		}
		body := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, errors.Wrapf(err, "chunk %s body", id)
		}

		switch id {
		case "HEAD":
			p.MaxDepth = body[0]
			p.Size = math.Float32frombits(binary.LittleEndian.Uint32(body[4:]))
			words = binary.LittleEndian.Uint32(body[8:])
			leaves = binary.LittleEndian.Uint32(body[12:])
			if words == 0 || words > octree.PackedMaxWords {
				return nil, errors.Wrapf(octree.ErrCorruptTree, "HEAD declares %d words", words)
			}
			if uint64(leaves) > uint64(words)*octree.Branching {
				return nil, errors.Wrapf(octree.ErrCorruptTree, "HEAD declares %d leaves for %d words", leaves, words)
			}
			haveHead = true
		case "NODE":
			p.Words = make([]uint64, words)
			for i := range p.Words {
				p.Words[i] = binary.LittleEndian.Uint64(body[i*octree.PackedWordSize:])
			}
		case "LOFS":
			p.LeafOffsets = make([]uint32, words)
			for i := range p.LeafOffsets {
				p.LeafOffsets[i] = binary.LittleEndian.Uint32(body[i*4:])
			}
		case "LEAF":
			p.Leaves = body
		}
	}

	if !haveHead {
		return nil, errors.New("missing HEAD chunk")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func SaveSVOFile(filename string, p *octree.PackedTree[uint8]) error {
	var buf bytes.Buffer
	if err := WriteSVO(&buf, p); err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(filename, buf.Bytes(), 0o644), filename)
}

func LoadSVOFile(filename string) (*octree.PackedTree[uint8], error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	p, err := ReadSVO(bufio.NewReader(file))
	return p, errors.Wrap(err, filename)
}
