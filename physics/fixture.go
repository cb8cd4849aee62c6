package physics

import "github.com/jakecoffman/cp"

// Kind identifies what owns a shape. The numeric value doubles as the cp
// collision type.
type Kind int

const (
	KindTerrain Kind = iota + 1
	KindLadderZone
	KindCharacterTorso
	KindCharacterFoot
	KindBullet
)

func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindLadderZone:
		return "ladder"
	case KindCharacterTorso:
		return "torso"
	case KindCharacterFoot:
		return "foot"
	case KindBullet:
		return "bullet"
	}
	return "unknown"
}

func (k Kind) CollisionType() cp.CollisionType {
	return cp.CollisionType(k)
}

const (
	CategoryTerrain uint = 1 << iota
	CategoryLadder
	CategoryCharacter
	CategoryBullet
)

// Filter returns the collision filter for a kind. Characters never collide
// with each other and ladder sensors only see characters.
func (k Kind) Filter() cp.ShapeFilter {
	switch k {
	case KindTerrain:
		return cp.NewShapeFilter(cp.NO_GROUP, CategoryTerrain, CategoryCharacter|CategoryBullet)
	case KindLadderZone:
		return cp.NewShapeFilter(cp.NO_GROUP, CategoryLadder, CategoryCharacter)
	case KindCharacterTorso, KindCharacterFoot:
		return cp.NewShapeFilter(cp.NO_GROUP, CategoryCharacter, CategoryTerrain|CategoryLadder|CategoryBullet)
	case KindBullet:
		return cp.NewShapeFilter(cp.NO_GROUP, CategoryBullet, CategoryTerrain|CategoryCharacter)
	}
	return cp.SHAPE_FILTER_ALL
}

// Tag is stored in Shape.UserData and links a shape back to its owner.
type Tag struct {
	Kind  Kind
	Owner any
}

// Attach tags shape with kind and owner and applies the kind's collision
// type and filter.
func Attach(shape *cp.Shape, kind Kind, owner any) *Tag {
	tag := &Tag{Kind: kind, Owner: owner}
	shape.UserData = tag
	shape.SetCollisionType(kind.CollisionType())
	shape.SetFilter(kind.Filter())
	return tag
}

// TagOf returns the tag stored on shape.
func TagOf(shape *cp.Shape) (*Tag, bool) {
	if shape == nil {
		return nil, false
	}
	tag, ok := shape.UserData.(*Tag)
	return tag, ok && tag != nil
}
