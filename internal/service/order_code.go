package service

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// OrderCodeGenerator 订单编号生成器
type OrderCodeGenerator interface {
	Next() string
}

// SnowflakeCodeGenerator 基于雪花算法的订单编号
type SnowflakeCodeGenerator struct {
	node   *snowflake.Node
	prefix string
}

// NewSnowflakeCodeGenerator 创建订单编号生成器
func NewSnowflakeCodeGenerator(nodeID int64, prefix string) (*SnowflakeCodeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeCodeGenerator{
		node:   node,
		prefix: strings.ToUpper(strings.TrimSpace(prefix)),
	}, nil
}

// Next 生成下一个订单编号
func (g *SnowflakeCodeGenerator) Next() string {
	return g.prefix + g.node.Generate().String()
}
