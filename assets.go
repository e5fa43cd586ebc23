package svo

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/octree"
)

type AssetId string

var ErrUnknownAsset = errors.New("unknown tree asset")

// TreeAsset is one built tree together with its packed form. Assets are
// immutable; ReplaceTree swaps in a new one with a higher version.
type TreeAsset struct {
	Version uint
	Tree    *octree.Tree[uint8]
	Packed  *octree.PackedTree[uint8]
}

type TreeServer struct {
	mu     sync.RWMutex
	cfg    Config
	logger Logger
	trees  map[AssetId]TreeAsset
}

func NewTreeServer(cfg Config, logger Logger) *TreeServer {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &TreeServer{
		cfg:    cfg,
		logger: logger,
		trees:  make(map[AssetId]TreeAsset),
	}
}

func (s *TreeServer) build(leaves []octree.Leaf[uint8]) (*octree.Tree[uint8], *octree.PackedTree[uint8], error) {
	tree, err := octree.Build(leaves, s.cfg.BuildOptions()...)
	if err != nil {
		return nil, nil, err
	}
	packed, err := octree.Pack(tree)
	if err != nil {
		return nil, nil, err
	}
	if s.logger.DebugEnabled() {
		st := tree.Stats()
		s.logger.Debugf("built tree: %d leaves in, %d nodes (%d parents, %d leaves), %d packed words",
			len(leaves), st.Nodes, st.Parents, st.Leaves, len(packed.Words))
	}
	return tree, packed, nil
}

func (s *TreeServer) CreateTree(leaves []octree.Leaf[uint8]) (AssetId, error) {
	tree, packed, err := s.build(leaves)
	if err != nil {
		return "", errors.Wrap(err, "create tree")
	}
	id := makeAssetId()

	s.mu.Lock()
	s.trees[id] = TreeAsset{Tree: tree, Packed: packed}
	s.mu.Unlock()
	return id, nil
}

// CreateTreeFromVox fits model into the configured depth and builds it.
func (s *TreeServer) CreateTreeFromVox(model VoxModel) (AssetId, error) {
	fit := FitVoxModel(model, s.cfg.Build.MaxDepth)
	if fit.SizeX != model.SizeX || fit.SizeY != model.SizeY || fit.SizeZ != model.SizeZ {
		s.logger.Warnf("model %dx%dx%d downscaled to %dx%dx%d", model.SizeX, model.SizeY, model.SizeZ, fit.SizeX, fit.SizeY, fit.SizeZ)
	}
	leaves, err := fit.Leaves(s.cfg.Build.MaxDepth)
	if err != nil {
		return "", err
	}
	return s.CreateTree(leaves)
}

// ReplaceTree rebuilds the asset from scratch. On error the previous tree
// stays in place.
func (s *TreeServer) ReplaceTree(id AssetId, leaves []octree.Leaf[uint8]) error {
	s.mu.RLock()
	_, ok := s.trees[id]
	s.mu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrUnknownAsset, "%s", id)
	}

	tree, packed, err := s.build(leaves)
	if err != nil {
		return errors.Wrapf(err, "replace tree %s", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.trees[id]
	if !ok {
		return errors.Wrapf(ErrUnknownAsset, "%s", id)
	}
	s.trees[id] = TreeAsset{Version: prev.Version + 1, Tree: tree, Packed: packed}
	return nil
}

func (s *TreeServer) Tree(id AssetId) (TreeAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.trees[id]
	return a, ok
}

func (s *TreeServer) Remove(id AssetId) {
	s.mu.Lock()
	delete(s.trees, id)
	s.mu.Unlock()
}

func (s *TreeServer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trees)
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
