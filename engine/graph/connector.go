package graph

import (
	"encoding/json"
	"fmt"
)

// Connector is a named input or output slot on a node.
type Connector int

const (
	Top Connector = iota
	Right
	Bottom
	Left
	Success
	Fail
	Bottom1
	Bottom2
	Bottom3
	Bottom4
)

var connectorNames = [...]string{"Top", "Right", "Bottom", "Left", "Success", "Fail", "Bottom1", "Bottom2", "Bottom3", "Bottom4"}

// TreeFanOut lists the connectors a tree root follows, in order.
var TreeFanOut = []Connector{Bottom1, Bottom2, Bottom}

func (c Connector) String() string {
	if c >= 0 && int(c) < len(connectorNames) {
		return connectorNames[c]
	}
	return fmt.Sprintf("Connector(%d)", int(c))
}

// ParseConnector returns the connector with the given name.
func ParseConnector(s string) (Connector, error) {
	for i, name := range connectorNames {
		if name == s {
			return Connector(i), nil
		}
	}
	return 0, fmt.Errorf("unknown connector %q", s)
}

func (c Connector) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Connector) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConnector(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
