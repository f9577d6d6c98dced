// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// airmon polls an HTU21D humidity sensor and an MH-Z19 CO2 sensor, logs the
// readings and optionally publishes them to an MQTT broker.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/airsensors/gauge"
	"github.com/GermanBionicSystems/airsensors/htu21d"
	"github.com/GermanBionicSystems/airsensors/mhz19"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

type monitor struct {
	hum *htu21d.Dev
	co2 *mhz19.Dev
	pub *publisher
	// Running mean of trusted CO2 readings since start.
	avg mhz19.Average

	humGauge *gauge.Dev
	co2Gauge *gauge.Dev
}

func (m *monitor) poll(now time.Time) {
	if m.hum != nil {
		env := physic.Env{}
		if err := m.hum.Sense(&env); err != nil {
			log.Printf("htu21d: code %d: %v", htu21d.ErrorCode(err), err)
		} else {
			msg := newEnvMessage(now, &env)
			if m.humGauge != nil {
				_ = m.humGauge.Show("humidity", msg.Humidity, "%rH")
			} else {
				log.Printf("temperature=%s humidity=%s", env.Temperature, env.Humidity)
			}
			m.publish("htu21d", msg)
		}
	}
	if m.co2 != nil {
		r, err := m.co2.Read()
		reliable := err == nil
		if err != nil && !errors.Is(err, mhz19.ErrUnreliable) {
			log.Printf("mhz19: code %d: %v", mhz19.LegacyCode(r.CO2, err), err)
			return
		}
		if reliable {
			m.avg.Add(r.CO2)
		}
		avg, _ := m.avg.Value()
		msg := newCO2Message(now, r, reliable, avg)
		if m.co2Gauge != nil {
			_ = m.co2Gauge.Show("co2", float64(r.CO2), "ppm")
		} else {
			log.Printf("co2=%s average=%s reliable=%t", r.CO2, avg, reliable)
		}
		m.publish("mhz19", msg)
	}
}

func (m *monitor) publish(sensor string, msg interface{}) {
	if m.pub == nil {
		return
	}
	if err := m.pub.publish(sensor, msg); err != nil {
		log.Printf("mqtt: %v", err)
	}
}

func mainImpl() error {
	i2cID := flag.String("i2c", "", "I²C bus to use")
	noHum := flag.Bool("no-htu21d", false, "do not poll the HTU21D")
	port := flag.String("serial", "", "serial port of the MH-Z19; empty to skip it")
	abc := flag.Bool("abc", false, "leave MH-Z19 automatic baseline correction enabled")
	readTimeout := flag.Duration("read-timeout", 2*time.Second, "MH-Z19 read timeout, 0 to block")
	interval := flag.Duration("interval", 10*time.Second, "polling interval")
	broker := flag.String("mqtt", "", "MQTT broker (tcp://host:port); empty to disable")
	clientID := flag.String("mqtt-client-id", "airmon", "MQTT client ID")
	topic := flag.String("topic", "airmon", "MQTT topic prefix")
	showGauge := flag.Bool("gauge", false, "draw readings as colored bars")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	m := &monitor{}
	if !*noHum {
		bus, err := i2creg.Open(*i2cID)
		if err != nil {
			return err
		}
		defer bus.Close()
		m.hum, err = htu21d.New(bus, nil)
		if errors.Is(err, htu21d.ErrNotReady) {
			log.Println(err)
		} else if err != nil {
			return err
		}
		if sn, err := m.hum.SerialNumber(); err == nil {
			log.Printf("htu21d serial number %s", sn)
		}
	}
	if *port != "" {
		var err error
		m.co2, err = mhz19.Open(*port, &mhz19.Opts{ABC: *abc, ReadTimeout: *readTimeout})
		if err != nil {
			return err
		}
		defer m.co2.Close()
	}
	if m.hum == nil && m.co2 == nil {
		return errors.New("no sensor selected")
	}
	if *showGauge {
		var err error
		if m.humGauge, err = gauge.New(&gauge.Opts{Width: 40, Min: 0, Max: 100}); err != nil {
			return err
		}
		defer m.humGauge.Halt()
		if m.co2Gauge, err = gauge.New(&gauge.Opts{Width: 40, Min: 400, Max: 2000}); err != nil {
			return err
		}
	}
	if *broker != "" {
		var err error
		if m.pub, err = newPublisher(*broker, *clientID, *topic); err != nil {
			return err
		}
		defer m.pub.Close()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	t := time.NewTicker(*interval)
	defer t.Stop()
	for {
		m.poll(time.Now())
		select {
		case <-sig:
			return nil
		case <-t.C:
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "airmon: %s.\n", err)
		os.Exit(1)
	}
}
