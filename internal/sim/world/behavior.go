package world

// Behavior is the per-tick derived mode of a fish. It is recomputed from
// persisted state every tick and never serialized.
type Behavior interface{ isBehavior() }

// Wander drifts toward the fish's current wander target.
type Wander struct{}

// SeekFood pursues a live food item by id.
type SeekFood struct{ FoodID int64 }

// Playing pursues a play partner by fish id.
type Playing struct{ PartnerID int64 }

// SinkingCorpse drops a dead fish toward the tank floor.
type SinkingCorpse struct{}

func (Wander) isBehavior()        {}
func (SeekFood) isBehavior()      {}
func (Playing) isBehavior()       {}
func (SinkingCorpse) isBehavior() {}
