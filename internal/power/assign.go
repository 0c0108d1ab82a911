package power

import (
	"fmt"
	"sort"
)

// Assignment scores. Higher wins; ties keep discovery order.
const (
	scoreIsolated    = 100
	scoreVoltage     = 50
	scorePolarity    = 30
	scoreConnector   = 20
	scoreHeadroomMax = 10
	headroomStepMA   = 100
)

type portKey struct {
	supply int
	jackID int
}

type taggedPort struct {
	key  portKey
	jack TaggedOutputJack
}

type candidate struct {
	port  taggedPort
	score int
	notes []string
}

// AssignPedalsToOutputs greedily binds each consumer to the best free output
// port. Consumers are visited by descending known draw (unknown counts as
// 0). A port is used at most once. The heuristic does not backtrack, so the
// matching is not guaranteed to be globally optimal.
func AssignPedalsToOutputs(consumers []PowerConsumer, supplies []PowerSupplyInfo) AssignmentResult {
	ports := make([]taggedPort, 0)
	for si, supply := range supplies {
		for idx, jack := range supply.OutputJacks {
			ports = append(ports, taggedPort{
				key: portKey{supply: si, jackID: jack.ID},
				jack: TaggedOutputJack{
					Jack:             jack,
					SupplyName:       supply.DisplayName(),
					SupplyProductID:  supply.ProductID,
					SupplyInstanceID: supply.InstanceID,
					PortIndex:        idx + 1,
				},
			})
		}
	}

	sorted := make([]PowerConsumer, len(consumers))
	copy(sorted, consumers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return drawOrZero(sorted[i]) > drawOrZero(sorted[j])
	})

	result := AssignmentResult{
		Assignments: make([]PortAssignment, 0),
		Unassigned:  make([]PowerConsumer, 0),
	}
	assigned := make(map[portKey]bool)

	for _, consumer := range sorted {
		var best *candidate
		for _, port := range ports {
			if assigned[port.key] {
				continue
			}
			c, ok := scorePort(consumer, port)
			if !ok {
				continue
			}
			if best == nil || c.score > best.score {
				best = &c
			}
		}

		if best == nil {
			result.Unassigned = append(result.Unassigned, consumer)
			continue
		}
		assigned[best.port.key] = true
		result.Assignments = append(result.Assignments, PortAssignment{
			Consumer: consumer,
			Jack:     best.port.jack,
			Score:    best.score,
			Notes:    best.notes,
		})
	}

	return result
}

// scorePort applies the hard voltage and current filters, then scores the
// port. ok is false when a hard filter rejects it.
func scorePort(consumer PowerConsumer, port taggedPort) (candidate, bool) {
	jack := port.jack
	voltageKnown := consumer.Voltage != nil && jack.Voltage != nil
	currentKnown := consumer.CurrentMA != nil && jack.CurrentMA != nil

	if voltageKnown && !VoltagesCompatible(*jack.Voltage, *consumer.Voltage) {
		return candidate{}, false
	}
	if currentKnown && *jack.CurrentMA < *consumer.CurrentMA {
		return candidate{}, false
	}

	c := candidate{port: port, notes: make([]string, 0)}

	if jack.Isolated() {
		c.score += scoreIsolated
	}
	if voltageKnown {
		c.score += scoreVoltage
	}

	if match, known := PolarityMatch(consumer.Polarity, jack.Polarity); known {
		if match {
			c.score += scorePolarity
		} else {
			c.notes = append(c.notes, fmt.Sprintf("Needs polarity adapter (%s pedal, %s output)",
				*consumer.Polarity, *jack.Polarity))
		}
	}

	if match, known := ConnectorMatch(consumer.ConnectorType, jack.ConnectorType); known {
		if match {
			c.score += scoreConnector
		} else {
			c.notes = append(c.notes, fmt.Sprintf("Needs connector adapter (%s pedal, %s output)",
				*consumer.ConnectorType, *jack.ConnectorType))
		}
	}

	if currentKnown {
		c.score += headroomScore(*jack.CurrentMA - *consumer.CurrentMA)
	}

	return c, true
}

// headroomScore rewards tight but sufficient fits.
func headroomScore(headroom int) int {
	s := scoreHeadroomMax - floorDiv(headroom, headroomStepMA)
	if s < 0 {
		return 0
	}
	return s
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func drawOrZero(c PowerConsumer) int {
	if c.CurrentMA == nil {
		return 0
	}
	return *c.CurrentMA
}
