package background

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
)

// Weather is a state of the day-night sky's weather machine.
type Weather int

const (
	Sunny Weather = iota
	Cloudy
	Rainy
	Stormy
)

func (w Weather) String() string {
	switch w {
	case Sunny:
		return "sunny"
	case Cloudy:
		return "cloudy"
	case Rainy:
		return "rainy"
	case Stormy:
		return "stormy"
	}
	return "unknown"
}

// weatherTransitions lists the states each weather may change into.
var weatherTransitions = map[Weather][]Weather{
	Sunny:  {Cloudy},
	Cloudy: {Sunny, Rainy},
	Rainy:  {Cloudy, Stormy},
	Stormy: {Rainy},
}

// CanTransition reports whether from → to is a legal weather change.
func CanTransition(from, to Weather) bool {
	for _, w := range weatherTransitions[from] {
		if w == to {
			return true
		}
	}
	return false
}

type weatherLook struct {
	tint   glyph.Color
	amount float64 // how strongly the tint covers the sky
	cover  float64 // cloud noise threshold; higher means fewer clouds
	rain   float64 // fraction of sky cells carrying a rain streak
}

var weatherLooks = map[Weather]weatherLook{
	Sunny:  {tint: glyph.MustHex("#ffffff"), amount: 0, cover: 0.78, rain: 0},
	Cloudy: {tint: glyph.MustHex("#8a8f99"), amount: 0.45, cover: 0.52, rain: 0},
	Rainy:  {tint: glyph.MustHex("#5a6270"), amount: 0.65, cover: 0.42, rain: 0.06},
	Stormy: {tint: glyph.MustHex("#2f3440"), amount: 0.8, cover: 0.32, rain: 0.12},
}

var (
	rainColor  = glyph.MustHex("#9fb4c7")
	cloudLight = glyph.MustHex("#e8e8e8")
	cloudDark  = glyph.MustHex("#4a4f58")
	sunColor   = glyph.MustHex("#ffd166")
	moonColor  = glyph.MustHex("#f4f1de")
)

// skyKeys are sky colours at hours of the day; colours between keys are
// blended.
var skyKeys = []struct {
	hour  float64
	color glyph.Color
}{
	{0, glyph.MustHex("#0b1026")},
	{5, glyph.MustHex("#1c2450")},
	{6.5, glyph.MustHex("#f4a261")},
	{8, glyph.MustHex("#87ceeb")},
	{17, glyph.MustHex("#87ceeb")},
	{18.5, glyph.MustHex("#e76f51")},
	{20, glyph.MustHex("#0b1026")},
	{24, glyph.MustHex("#0b1026")},
}

type dayNightState struct {
	hour      float64
	weather   Weather
	previous  Weather
	fade      float64 // 0 shows previous weather, 1 the current one
	ticksLeft int
	flash     int // remaining lightning ticks
	ticks     uint64
}

// DayNight is a sky with a moving sun and moon, colour keyed by time of day,
// and a weather machine that cross-fades between states.
type DayNight struct {
	fov            float64
	minutesPerTick float64
	minTicks       int
	maxTicks       int
	fadeTicks      int
	noise          *valueNoise
	stars          *Starfield

	tickMu sync.Mutex
	rng    *rand.Rand
	state  atomic.Pointer[dayNightState]

	frame *dayNightState
	view  view
	sky   glyph.Color // sky colour of the pinned frame
}

// NewDayNight creates a day-night sky from cfg.
func NewDayNight(cfg config.BackgroundConfig, fov float64) (*DayNight, error) {
	d := &DayNight{
		fov:            fov,
		minutesPerTick: cfg.MinutesPerTick,
		minTicks:       max(cfg.WeatherMinTicks, 1),
		maxTicks:       max(cfg.WeatherMaxTicks, cfg.WeatherMinTicks, 1),
		fadeTicks:      max(cfg.FadeTicks, 1),
		noise:          newValueNoise(cfg.Seed),
		stars:          newStarfield(cfg.Seed, cfg.StarDensity, fov, glyph.Black),
		rng:            rand.New(rand.NewSource(cfg.Seed)),
	}
	d.stars.showMoon = false

	d.state.Store(&dayNightState{
		hour:      math.Mod(math.Max(cfg.StartHour, 0), 24),
		weather:   Sunny,
		previous:  Sunny,
		fade:      1,
		ticksLeft: d.weatherDuration(),
	})
	return d, nil
}

func (d *DayNight) weatherDuration() int {
	return d.minTicks + d.rng.Intn(d.maxTicks-d.minTicks+1)
}

// Tick advances the clock and the weather machine.
func (d *DayNight) Tick() bool {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	old := d.state.Load()
	next := *old
	next.ticks++
	next.hour = math.Mod(old.hour+d.minutesPerTick/60, 24)

	if next.fade < 1 {
		next.fade = math.Min(1, next.fade+1/float64(d.fadeTicks))
	}

	next.ticksLeft--
	if next.ticksLeft <= 0 {
		options := weatherTransitions[old.weather]
		next.previous = old.weather
		next.weather = options[d.rng.Intn(len(options))]
		next.fade = 0
		next.ticksLeft = d.weatherDuration()
	}

	if next.flash > 0 {
		next.flash--
	} else if next.weather == Stormy && d.rng.Float64() < 0.03 {
		next.flash = 3
	}

	d.state.Store(&next)
	return true
}

// Hour returns the current time of day in [0, 24).
func (d *DayNight) Hour() float64 { return d.state.Load().hour }

// Weather returns the current weather state.
func (d *DayNight) Weather() Weather { return d.state.Load().weather }

// SetWeather jumps to w, cross-fading from the current state.
func (d *DayNight) SetWeather(w Weather) {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	old := d.state.Load()
	next := *old
	next.previous = old.weather
	next.weather = w
	next.fade = 0
	next.ticksLeft = d.weatherDuration()
	d.state.Store(&next)
}

func (d *DayNight) SetDimensionAndAngle(width, height int, viewerAngle float64) {
	d.frame = d.state.Load()
	d.view = view{width: width, height: height, angle: viewerAngle, fov: d.fov}
	d.sky = d.skyColor(d.frame)
}

// skyColor blends the time-of-day key colours, the weather tints and any
// lightning flash.
func (d *DayNight) skyColor(s *dayNightState) glyph.Color {
	base := skyAt(s.hour)
	prev := weatherLooks[s.previous]
	cur := weatherLooks[s.weather]
	from := base.Blend(prev.tint, prev.amount)
	to := base.Blend(cur.tint, cur.amount)
	sky := from.Blend(to, s.fade)
	if s.flash > 0 {
		sky = sky.Lerp(glyph.White, 0.7)
	}
	return sky
}

func skyAt(hour float64) glyph.Color {
	for i := 1; i < len(skyKeys); i++ {
		if hour <= skyKeys[i].hour {
			a, b := skyKeys[i-1], skyKeys[i]
			t := (hour - a.hour) / (b.hour - a.hour)
			return a.color.Blend(b.color, t)
		}
	}
	return skyKeys[len(skyKeys)-1].color
}

// darkness is 1 at night and 0 in full day.
func darkness(hour float64) float64 {
	sun := math.Sin(math.Pi * (hour - 6) / 12)
	return math.Min(1, math.Max(0, 0.5-sun*2))
}

func (d *DayNight) Background(x, y int) glyph.Cell {
	v := d.view
	s := d.frame
	if s == nil {
		s = d.state.Load()
		d.sky = d.skyColor(s)
	}
	if y >= v.horizon() {
		g := d.sky.Darken(0.35)
		return glyph.Cell{Rune: ' ', Fg: g, Bg: g}
	}

	sky := d.sky.Lerp(d.sky.Darken(0.75), d.view.elevation(y)*0.5)
	look := d.blendedLook(s)
	u := v.skyU(x)
	elev := v.elevation(y)

	if s.weather != Sunny || s.fade < 1 {
		if look.rain > 0 && d.raining(x, y, s.ticks, look.rain) {
			return glyph.Cell{Rune: '/', Fg: rainColor, Bg: sky}
		}
	}

	circ := v.circumference()
	period := int64(math.Max(1, math.Round(circ*0.08)))
	ratio := float64(period) / math.Max(circ, 1)
	n := d.noise.fractal(u*float64(period)+float64(s.ticks)*0.02, float64(y)*ratio*2, period, 3)
	cloud := cloudLight.Lerp(cloudDark, look.amount)
	if c := cloudCell(n, look.cover, cloud, sky); c.Rune != ' ' {
		return c
	}

	if body, ok := d.celestial(v, s.hour, u, elev, look); ok {
		body.Bg = sky
		return body
	}

	if dark := darkness(s.hour); dark > 0.6 && look.amount < 0.6 {
		return d.stars.skyCell(v, float64(s.ticks), x, y, sky)
	}
	return glyph.Cell{Rune: ' ', Fg: sky, Bg: sky}
}

// blendedLook interpolates cover and rain during a weather cross-fade.
func (d *DayNight) blendedLook(s *dayNightState) weatherLook {
	a, b := weatherLooks[s.previous], weatherLooks[s.weather]
	t := s.fade
	return weatherLook{
		tint:   b.tint,
		amount: a.amount + (b.amount-a.amount)*t,
		cover:  a.cover + (b.cover-a.cover)*t,
		rain:   a.rain + (b.rain-a.rain)*t,
	}
}

// raining marks falling streak cells; streaks move down one row per tick.
func (d *DayNight) raining(x, y int, ticks uint64, density float64) bool {
	return d.noise.hashCell(x+y, y-int(ticks%1024)) < density
}

// celestial draws the sun by day and the moon by night. Both travel half the
// sky cylinder, rising at u=0 and setting at u=0.5.
func (d *DayNight) celestial(v view, hour, u, elev float64, look weatherLook) (glyph.Cell, bool) {
	if look.amount > 0.6 {
		return glyph.Cell{}, false
	}

	bodyHour := hour
	r, fg := '●', sunColor
	if hour < 6 || hour >= 18 {
		bodyHour = math.Mod(hour+12, 24)
		r, fg = '◐', moonColor
	}
	progress := (bodyHour - 6) / 12
	bodyU := progress * 0.5
	bodyElev := math.Sin(math.Pi * progress)
	if bodyElev <= 0 {
		return glyph.Cell{}, false
	}

	du := math.Abs(u - bodyU)
	if du > 0.5 {
		du = 1 - du
	}
	dx := du * v.circumference()
	dy := (elev - bodyElev) * float64(v.horizon()) * 2
	if dx*dx+dy*dy > 2.25 {
		return glyph.Cell{}, false
	}
	return glyph.Cell{Rune: r, Fg: fg}, true
}
