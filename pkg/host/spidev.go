package host

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	periph "periph.io/x/host/v3"
)

var (
	periphOnce sync.Once
	periphErr  error
)

func initPeriph() error {
	periphOnce.Do(func() {
		_, periphErr = periph.Init()
	})
	return periphErr
}

// SPIMode converts the config into a periph SPI mode.
func (c SPIConfig) SPIMode() spi.Mode {
	mode := spi.Mode(c.Mode & 3)
	if c.LSBFirst {
		mode |= spi.LSBFirst
	}
	return mode
}

// SPIDevice is a spidev port opened through periph. It implements Transferer.
type SPIDevice struct {
	Config SPIConfig

	port spi.PortCloser
	conn spi.Conn
	lock sync.Mutex
}

// OpenSPI opens and configures a spidev device, e.g. /dev/spidev0.0 or SPI0.0.
func OpenSPI(conf SPIConfig) (*SPIDevice, error) {
	if err := initPeriph(); err != nil {
		return nil, fmt.Errorf("init periph: %v", err)
	}
	port, err := spireg.Open(conf.Device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", conf.Device, err)
	}
	conn, err := port.Connect(physic.Frequency(conf.SpeedHz)*physic.Hertz, conf.SPIMode(), int(conf.BitsPerWord))
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("configure %s: %v", conf.Device, err)
	}
	return &SPIDevice{Config: conf, port: port, conn: conn}, nil
}

// Transfer implements Transferer.
func (d *SPIDevice) Transfer(tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	if len(tx) == 0 {
		return rx, nil
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.conn.Tx(tx, rx); err != nil {
		return nil, err
	}
	return rx, nil
}

// Close implements Transferer.
func (d *SPIDevice) Close() error {
	return d.port.Close()
}
