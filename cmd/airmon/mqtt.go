// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/GermanBionicSystems/airsensors/mhz19"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/physic"
)

const publishTimeout = 5 * time.Second

type envMessage struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_rh"`
}

func newEnvMessage(now time.Time, e *physic.Env) envMessage {
	return envMessage{
		Time:        now.UTC(),
		Temperature: e.Temperature.Celsius(),
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
	}
}

type co2Message struct {
	Time        time.Time `json:"time"`
	CO2         int       `json:"ppm"`
	Average     int       `json:"average_ppm,omitempty"`
	Reliable    bool      `json:"reliable"`
	Temperature float64   `json:"temperature_c"`
}

func newCO2Message(now time.Time, r mhz19.Reading, reliable bool, avg mhz19.PPM) co2Message {
	return co2Message{
		Time:        now.UTC(),
		CO2:         int(r.CO2),
		Average:     int(avg),
		Reliable:    reliable,
		Temperature: r.Temperature.Celsius(),
	}
}

// publisher sends JSON readings to <topic>/<sensor>.
type publisher struct {
	client mqtt.Client
	topic  string
}

func newPublisher(broker, clientID, topic string) (*publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	c := mqtt.NewClient(opts)
	if t := c.Connect(); !t.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt: timeout connecting to %s", broker)
	} else if err := t.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: error connecting to %s: %w", broker, err)
	}
	return &publisher{client: c, topic: topic}, nil
}

func (p *publisher) publish(sensor string, msg interface{}) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t := p.client.Publish(p.topic+"/"+sensor, 0, false, b)
	if !t.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout publishing to %s/%s", p.topic, sensor)
	}
	return t.Error()
}

func (p *publisher) Close() {
	p.client.Disconnect(250)
}
