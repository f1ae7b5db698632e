package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every empirically tuned constant of the simulation.
// The curve shapes in the engine are the contract; these values are not.
type Tuning struct {
	Clock    Clock    `yaml:"clock"`
	Tank     Tank     `yaml:"tank"`
	Fish     Fish     `yaml:"fish"`
	Hunger   Hunger   `yaml:"hunger"`
	Corpse   Corpse   `yaml:"corpse"`
	Breeding Breeding `yaml:"breeding"`
	Water    Water    `yaml:"water"`
	Filter   Filter   `yaml:"filter"`
	Play     Play     `yaml:"play"`
	Food     Food     `yaml:"food"`
	Bubbles  Bubbles  `yaml:"bubbles"`
}

type Clock struct {
	TickRateHz     int     `yaml:"tick_rate_hz"`
	LifeScale      float64 `yaml:"life_scale"`
	MaxLifeStepSec float64 `yaml:"max_life_step_sec"`
	SpeedMin       float64 `yaml:"speed_min"`
	SpeedMax       float64 `yaml:"speed_max"`
}

type Tank struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	WallMargin float64 `yaml:"wall_margin"`
}

type Fish struct {
	CruiseSpeed        float64 `yaml:"cruise_speed"`
	TurnRateRad        float64 `yaml:"turn_rate_rad"`
	DriftRateRad       float64 `yaml:"drift_rate_rad"`
	MaxTiltRad         float64 `yaml:"max_tilt_rad"`
	FacingDeadband     float64 `yaml:"facing_deadband"`
	WanderReachRadius  float64 `yaml:"wander_reach_radius"`
	RetargetProbPerSec float64 `yaml:"retarget_prob_per_sec"`
	BreathAmp          float64 `yaml:"breath_amp"`
	BreathHz           float64 `yaml:"breath_hz"`
	BirthSizeFrac      float64 `yaml:"birth_size_frac"`
	BabyEndSec         float64 `yaml:"baby_end_sec"`
	JuvenileEndSec     float64 `yaml:"juvenile_end_sec"`
	OldStartRatio      float64 `yaml:"old_start_ratio"`
	StageJitterFrac    float64 `yaml:"stage_jitter_frac"`
	LifespanMeanSec    float64 `yaml:"lifespan_mean_sec"`
	LifespanJitterFrac float64 `yaml:"lifespan_jitter_frac"`
	SinkSpeed          float64 `yaml:"sink_speed"`
}

type Hunger struct {
	EnergyPerDistance float64 `yaml:"energy_per_distance"`
	HungryThreshold   float64 `yaml:"hungry_threshold"`
	StarvingThreshold float64 `yaml:"starving_threshold"`
	Hysteresis        float64 `yaml:"hysteresis"`
	SatietyPerBite    float64 `yaml:"satiety_per_bite"`
	BiteAmount        float64 `yaml:"bite_amount"`
	EatRadius         float64 `yaml:"eat_radius"`
	DetectRadiusFed   float64 `yaml:"detect_radius_fed"`
	DetectRadiusHun   float64 `yaml:"detect_radius_hungry"`
	DetectRadiusStarv float64 `yaml:"detect_radius_starving"`
	BoostFed          float64 `yaml:"speed_boost_fed"`
	BoostHungry       float64 `yaml:"speed_boost_hungry"`
	BoostStarving     float64 `yaml:"speed_boost_starving"`
}

type Corpse struct {
	GraceSec     float64 `yaml:"grace_sec"`
	DirtStepSec  float64 `yaml:"dirt_step_sec"`
	DirtPerStep  float64 `yaml:"dirt_per_step"`
	MaxDirtSteps int     `yaml:"max_dirt_steps"`
	DecaySec     float64 `yaml:"decay_sec"`
}

type Breeding struct {
	EncounterRadius   float64 `yaml:"encounter_radius"`
	RetryIntervalSec  float64 `yaml:"retry_interval_sec"`
	WellbeingFloor    float64 `yaml:"wellbeing_floor"`
	HygieneFloor      float64 `yaml:"hygiene_floor"`
	BaseSuccessProb   float64 `yaml:"base_success_prob"`
	GestationMinSec   float64 `yaml:"gestation_min_sec"`
	GestationMaxSec   float64 `yaml:"gestation_max_sec"`
	ClutchMin         int     `yaml:"clutch_min"`
	ClutchMax         int     `yaml:"clutch_max"`
	LayReachRadius    float64 `yaml:"lay_reach_radius"`
	MaleCooldownSec   float64 `yaml:"male_cooldown_sec"`
	FemaleCooldownSec float64 `yaml:"female_cooldown_sec"`
	HatchMinSec       float64 `yaml:"hatch_min_sec"`
	HatchMaxSec       float64 `yaml:"hatch_max_sec"`
	HatchFloorProb    float64 `yaml:"hatch_floor_prob"`
	MutationPct       float64 `yaml:"mutation_pct"`
	SizeFactorMin     float64 `yaml:"size_factor_min"`
	SizeFactorMax     float64 `yaml:"size_factor_max"`
	GrowthRateMin     float64 `yaml:"growth_rate_min"`
	GrowthRateMax     float64 `yaml:"growth_rate_max"`
	SpeedFactorMin    float64 `yaml:"speed_factor_min"`
	SpeedFactorMax    float64 `yaml:"speed_factor_max"`
	LifespanMinSec    float64 `yaml:"lifespan_min_sec"`
}

type Water struct {
	ReferencePopulation int     `yaml:"reference_population"`
	HygieneDecayPerSec  float64 `yaml:"hygiene_decay_per_sec"`
	DirtAmplification   float64 `yaml:"dirt_amplification"`
	DirtFromBioloadSec  float64 `yaml:"dirt_from_bioload_per_sec"`
	DirtPerExpiredFood  float64 `yaml:"dirt_per_expired_food"`
	RecoveryPerSec      float64 `yaml:"recovery_per_sec"`
}

type Filter struct {
	UnlockFeedings     int     `yaml:"unlock_feedings"`
	InstallSec         float64 `yaml:"install_sec"`
	MaintainSec        float64 `yaml:"maintain_sec"`
	CooldownSec        float64 `yaml:"cooldown_sec"`
	MaintainRestore    float64 `yaml:"maintain_restore"`
	WearPerSec         float64 `yaml:"wear_per_sec"`
	DepletionThreshold float64 `yaml:"depletion_threshold"`
	BioloadReduction   float64 `yaml:"bioload_reduction"`
	DirtRemovalPerSec  float64 `yaml:"dirt_removal_per_sec"`
}

type Play struct {
	EncounterRadius    float64 `yaml:"encounter_radius"`
	JoinProb           float64 `yaml:"join_prob"`
	AlgaeBoost         float64 `yaml:"algae_boost"`
	AlgaeZoneHeight    float64 `yaml:"algae_zone_height"`
	SessionMinSec      float64 `yaml:"session_min_sec"`
	SessionMaxSec      float64 `yaml:"session_max_sec"`
	MaxChasers         int     `yaml:"max_chasers"`
	FailCooldownSec    float64 `yaml:"fail_cooldown_sec"`
	ExpandProbPerTick  float64 `yaml:"expand_prob_per_tick"`
	SpeedBoost         float64 `yaml:"speed_boost"`
}

type Food struct {
	FallAccel      float64 `yaml:"fall_accel"`
	MaxFallSpeed   float64 `yaml:"max_fall_speed"`
	FloorDamping   float64 `yaml:"floor_damping"`
	DefaultTTLSec  float64 `yaml:"default_ttl_sec"`
	DefaultAmount  float64 `yaml:"default_amount"`
	FloorClearance float64 `yaml:"floor_clearance"`
}

type Bubbles struct {
	Count       int     `yaml:"count"`
	RiseMin     float64 `yaml:"rise_min"`
	RiseMax     float64 `yaml:"rise_max"`
	SwayAmp     float64 `yaml:"sway_amp"`
	SwayHz      float64 `yaml:"sway_hz"`
}

// Defaults returns the shipped tuning. configs/tuning.yaml mirrors these
// values; Load applies the file on top so a partial file is fine.
func Defaults() Tuning {
	return Tuning{
		Clock: Clock{
			TickRateHz:     20,
			LifeScale:      1.0,
			MaxLifeStepSec: 0.25,
			SpeedMin:       0.5,
			SpeedMax:       3.0,
		},
		Tank: Tank{Width: 800, Height: 500, WallMargin: 60},
		Fish: Fish{
			CruiseSpeed:        40,
			TurnRateRad:        2.5,
			DriftRateRad:       1.8,
			MaxTiltRad:         0.6,
			FacingDeadband:     0.15,
			WanderReachRadius:  12,
			RetargetProbPerSec: 0.08,
			BreathAmp:          0.15,
			BreathHz:           0.8,
			BirthSizeFrac:      0.25,
			BabyEndSec:         120,
			JuvenileEndSec:     360,
			OldStartRatio:      0.75,
			StageJitterFrac:    0.15,
			LifespanMeanSec:    1800,
			LifespanJitterFrac: 0.2,
			SinkSpeed:          12,
		},
		Hunger: Hunger{
			EnergyPerDistance: 0.0004,
			HungryThreshold:   0.35,
			StarvingThreshold: 0.7,
			Hysteresis:        0.05,
			SatietyPerBite:    0.25,
			BiteAmount:        0.34,
			EatRadius:         10,
			DetectRadiusFed:   60,
			DetectRadiusHun:   140,
			DetectRadiusStarv: 240,
			BoostFed:          1.0,
			BoostHungry:       1.25,
			BoostStarving:     1.5,
		},
		Corpse: Corpse{
			GraceSec:     30,
			DirtStepSec:  20,
			DirtPerStep:  0.02,
			MaxDirtSteps: 5,
			DecaySec:     180,
		},
		Breeding: Breeding{
			EncounterRadius:   50,
			RetryIntervalSec:  12,
			WellbeingFloor:    0.5,
			HygieneFloor:      0.4,
			BaseSuccessProb:   0.35,
			GestationMinSec:   45,
			GestationMaxSec:   90,
			ClutchMin:         2,
			ClutchMax:         4,
			LayReachRadius:    14,
			MaleCooldownSec:   60,
			FemaleCooldownSec: 180,
			HatchMinSec:       60,
			HatchMaxSec:       120,
			HatchFloorProb:    0.1,
			MutationPct:       0.1,
			SizeFactorMin:     0.6,
			SizeFactorMax:     1.6,
			GrowthRateMin:     0.5,
			GrowthRateMax:     2.0,
			SpeedFactorMin:    0.6,
			SpeedFactorMax:    1.8,
			LifespanMinSec:    600,
		},
		Water: Water{
			ReferencePopulation: 8,
			HygieneDecayPerSec:  0.0005,
			DirtAmplification:   2.0,
			DirtFromBioloadSec:  0.0002,
			DirtPerExpiredFood:  0.03,
			RecoveryPerSec:      0.0008,
		},
		Filter: Filter{
			UnlockFeedings:     10,
			InstallSec:         20,
			MaintainSec:        15,
			CooldownSec:        30,
			MaintainRestore:    0.9,
			WearPerSec:         0.0003,
			DepletionThreshold: 0.2,
			BioloadReduction:   0.5,
			DirtRemovalPerSec:  0.002,
		},
		Play: Play{
			EncounterRadius:   70,
			JoinProb:          0.2,
			AlgaeBoost:        1.8,
			AlgaeZoneHeight:   80,
			SessionMinSec:     20,
			SessionMaxSec:     40,
			MaxChasers:        3,
			FailCooldownSec:   15,
			ExpandProbPerTick: 0.05,
			SpeedBoost:        1.3,
		},
		Food: Food{
			FallAccel:      60,
			MaxFallSpeed:   80,
			FloorDamping:   6,
			DefaultTTLSec:  45,
			DefaultAmount:  1.0,
			FloorClearance: 4,
		},
		Bubbles: Bubbles{Count: 12, RiseMin: 20, RiseMax: 50, SwayAmp: 6, SwayHz: 0.5},
	}
}

// Load reads a tuning file on top of Defaults. A missing file is an error;
// callers that want the resume fallback check os.IsNotExist themselves.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
