package host

import "math"

// Thermistor models a thermistor by its Steinhart-Hart coefficients.
type Thermistor struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

// TempC returns the temperature in Celsius at resistance r (Ohm).
func (t Thermistor) TempC(r float64) float64 {
	logR := math.Log(r)
	return 1/(t.A+t.B*logR+t.C*logR*logR*logR) - 273.15
}

// RMeter measures the thermistor resistance as the ratio of the voltage
// over the thermistor to the voltage over thermistor and Resistor in series.
type RMeter struct {
	Resistor float64 `yaml:"resistor"`
}

// R returns the resistance (Ohm) at the voltage ratio.
func (m RMeter) R(ratio float64) float64 {
	return (1/ratio - 1) * m.Resistor
}

// VRatioMeter maps an ADC reading 0..MaxNo to a voltage ratio 0..1.
type VRatioMeter struct {
	MaxNo uint `yaml:"max"`
}

// Ratio returns the voltage ratio for a reading.
func (m VRatioMeter) Ratio(no uint) float64 {
	return float64(no) / float64(m.MaxNo)
}

// TempModel converts raw satellite temperature readings to Celsius.
type TempModel struct {
	Thermistor Thermistor  `yaml:"thermistor"`
	RMeter     RMeter      `yaml:"rmeter"`
	VRatio     VRatioMeter `yaml:"vratio"`
}

// DefaultTempModel returns the model of the installed sensors.
func DefaultTempModel() TempModel {
	return TempModel{
		Thermistor: Thermistor{A: 1.270e-3, B: 2.229e-4, C: 3.948e-8},
		RMeter:     RMeter{Resistor: 997},
		VRatio:     VRatioMeter{MaxNo: 1023},
	}
}

// TempC converts a raw reading.
func (m TempModel) TempC(raw uint16) float64 {
	return m.Thermistor.TempC(m.RMeter.R(m.VRatio.Ratio(uint(raw))))
}
