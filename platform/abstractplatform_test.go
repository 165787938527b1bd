package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	a "lautenbacher.net/ledfade/animation"
	c "lautenbacher.net/ledfade/config"
)

func TestAbstractPlatform_SetColorAndClear(t *testing.T) {
	conf := c.Defaults()
	var shown []a.Led
	s := newAbstractPlatform(&conf, func(led a.Led) { shown = append(shown, led) })

	s.SetColor(a.Led{Red: 1, Green: 2, Blue: 3})
	assert.Equal(t, a.Led{Red: 1, Green: 2, Blue: 3}, s.LastColor())

	s.Clear()
	assert.True(t, s.LastColor().IsEmpty())
	assert.Equal(t, []a.Led{{Red: 1, Green: 2, Blue: 3}, {}}, shown)
}

func TestAbstractPlatform_NoColorsAfterShutdown(t *testing.T) {
	conf := c.Defaults()
	calls := 0
	s := newAbstractPlatform(&conf, func(led a.Led) { calls++ })

	s.SetColor(a.Led{Red: 9})
	s.setInShutdown()
	s.SetColor(a.Led{Green: 9})
	s.Clear()

	assert.Equal(t, 1, calls)
	assert.Equal(t, a.Led{Red: 9}, s.LastColor())
}
