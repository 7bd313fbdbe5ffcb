package puppet

import "errors"

var (
	ErrUnknownNode   = errors.New("puppet: unknown node")
	ErrUnknownParam  = errors.New("puppet: unknown parameter")
	ErrNotDeformable = errors.New("puppet: node has no deformable component")
	ErrDuplicateName = errors.New("puppet: duplicate name")
)
