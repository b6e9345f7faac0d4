package core

// ChargeConfig holds the on-chain parameters governing deterministic charge
// computation (spec.md §6). Every factor is bounded to (0, 1_000_000) and
// defaulted from genesis.
type ChargeConfig struct {
	BaselineCharge int64
	GlobalFactor   int64
	NetworkFactor  int64
	StorageFactor  int64
	CPUFactor      int64
}

// DefaultChargeConfig mirrors genesis defaults used when no on-chain
// override is present.
var DefaultChargeConfig = ChargeConfig{
	BaselineCharge: 100,
	GlobalFactor:   1,
	NetworkFactor:  1,
	StorageFactor:  10,
	CPUFactor:      1,
}

// ChargeMeter accumulates the inputs to the charge formula over the course
// of one transaction's apply.
type ChargeMeter struct {
	config       ChargeConfig
	byteCount    int64
	storageDelta int64
	cpuUnits     int64
}

func NewChargeMeter(cfg ChargeConfig) *ChargeMeter {
	return &ChargeMeter{config: cfg}
}

func (m *ChargeMeter) AddBytes(n int)            { m.byteCount += int64(n) }
func (m *ChargeMeter) AddStorageDelta(n int64)    { m.storageDelta += n }
func (m *ChargeMeter) AddCPUUnits(n int64)        { m.cpuUnits += n }

// Compute returns charge = baseline + global_factor * (network_factor*byte_count
// + storage_factor*storage_delta + cpu_factor*cpu_units).
func (m *ChargeMeter) Compute() int64 {
	variable := m.config.NetworkFactor*m.byteCount + m.config.StorageFactor*m.storageDelta + m.config.CPUFactor*m.cpuUnits
	return m.config.BaselineCharge + m.config.GlobalFactor*variable
}
