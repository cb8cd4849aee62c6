package ecs

import "strconv"

// Entity is a generational handle. The zero Entity is never alive.
type Entity struct {
	ID  int
	Gen int
}

func (e Entity) String() string {
	return strconv.Itoa(e.ID) + "v" + strconv.Itoa(e.Gen)
}

func (e Entity) Valid() bool {
	return e.ID > 0
}

// Key packs the entity into one integer, for wire formats.
func (e Entity) Key() uint64 {
	return uint64(uint32(e.Gen))<<32 | uint64(uint32(e.ID))
}

func EntityFromKey(k uint64) Entity {
	return Entity{ID: int(uint32(k)), Gen: int(uint32(k >> 32))}
}
