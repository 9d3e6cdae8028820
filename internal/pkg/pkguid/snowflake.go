package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Epoch is 2026-01-01T00:00:00Z in Unix milliseconds.
const Epoch int64 = 1767225600000

// MaxNode is the largest node id a 10 bit node field can hold.
const MaxNode int64 = 1<<10 - 1

var setEpoch sync.Once

// Snowflake generates time-ordered numeric IDs.
type Snowflake struct {
	node *snowflake.Node
}

func randomNode() (int64, error) {
	var n int64
	if err := binary.Read(rand.Reader, binary.BigEndian, &n); err != nil {
		return 0, err
	}
	return n & MaxNode, nil
}

// NewSnowflake constructs a generator for node. A negative node picks one at
// random, which is only safe for single-instance deployments.
func NewSnowflake(node int64) (*Snowflake, error) {
	if node < 0 {
		var err error
		if node, err = randomNode(); err != nil {
			return nil, err
		}
	}

	setEpoch.Do(func() { snowflake.Epoch = Epoch })

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// Strings adapts the generator to StringID, rendering IDs in base 10.
func (s *Snowflake) Strings() StringID {
	return snowflakeString{node: s.node}
}

type snowflakeString struct {
	node *snowflake.Node
}

func (s snowflakeString) Generate() string {
	return s.node.Generate().String()
}
