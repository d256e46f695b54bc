package uid

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs safe across multiple instances.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake generator.
//
// The node number is read from the SNOWFLAKE_NODE environment variable and
// defaults to 1 when unset or unparsable, so IDs are still produced on a
// single-node deployment.
func NewSnowflake() (*Snowflake, error) {
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = parsed
		}
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique int64 identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
