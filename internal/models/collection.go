package models

import (
	"bytes"
	"encoding/json"
)

// Collection описывает ответ списочных эндпоинтов панели. API отдаёт либо
// hydra-конверт {"hydra:member": [...], "hydra:totalItems": N}, либо голый
// JSON-массив — консоль обязана принимать обе формы.
type Collection[T any] struct {
	Members    []T
	TotalItems int
}

type hydraEnvelope[T any] struct {
	Members    []T `json:"hydra:member"`
	TotalItems int `json:"hydra:totalItems"`
}

// UnmarshalJSON принимает hydra-конверт или голый массив.
func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var members []T
		if err := json.Unmarshal(data, &members); err != nil {
			return err
		}
		c.Members = members
		c.TotalItems = len(members)
		return nil
	}

	var envelope hydraEnvelope[T]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	c.Members = envelope.Members
	c.TotalItems = envelope.TotalItems
	if c.TotalItems == 0 {
		c.TotalItems = len(envelope.Members)
	}
	return nil
}
