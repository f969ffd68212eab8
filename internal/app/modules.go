package app

import (
	"github.com/vk/datumgraph/internal/registry"
	"github.com/vk/datumgraph/modules/bounds"
	"github.com/vk/datumgraph/modules/box"
	"github.com/vk/datumgraph/modules/cell"
	"github.com/vk/datumgraph/modules/value"
)

// coreModules is the definitive list of node catalog modules compiled into
// the datumgraph binary.
var coreModules = []registry.Module{
	&value.Module{},
	&cell.Module{},
	&box.Module{},
	&bounds.Module{},
}
