// Package config предоставляет конфигурацию приложения с сохранением в TOML файл.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Способы ответа.
const (
	MethodVoice   = "voice"
	MethodGesture = "gesture"
	MethodSwatch  = "swatch"
	MethodQR      = "qr"
	MethodClick   = "click"
	MethodKeys    = "keys"
)

// Methods возвращает все способы ответа.
func Methods() []string {
	return []string{MethodVoice, MethodGesture, MethodSwatch, MethodQR, MethodClick, MethodKeys}
}

// Переменные окружения, перекрывающие файл.
const (
	EnvLanguage     = "STROOP_LANGUAGE"
	EnvMethod       = "STROOP_METHOD"
	EnvGoogleAPIKey = "STROOP_GOOGLE_API_KEY"
)

// Duration - time.Duration, который в TOML пишется строкой ("1.5s").
type Duration struct {
	time.Duration
}

// UnmarshalText разбирает строку через time.ParseDuration.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText пишет длительность строкой.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func dur(d time.Duration) Duration { return Duration{d} }

// Voice настройки голосового ввода.
type Voice struct {
	GetReady    Duration `toml:"get_ready"`
	Timeout     Duration `toml:"timeout"`
	Wait        Duration `toml:"wait"`
	PhraseLimit Duration `toml:"phrase_limit"`
	Pause       Duration `toml:"pause"`
	NoiseFloor  float64  `toml:"noise_floor"`
	// Recorders - порядок бэкендов записи: portaudio, portaudio-direct, system.
	Recorders []string `toml:"recorders"`
	// Recognizers - распознаватели: vosk, google.
	Recognizers  []string `toml:"recognizers"`
	GoogleAPIKey string   `toml:"google_api_key,omitempty"`
}

// Gesture настройки ввода жестами.
type Gesture struct {
	StableFrames int      `toml:"stable_frames"`
	Hold         Duration `toml:"hold"`
	Timeout      Duration `toml:"timeout"`
	Devices      []int    `toml:"devices"`
	ModelID      string   `toml:"model_id"`
	PalmModelID  string   `toml:"palm_model_id"`
}

// Swatch настройки ввода цветным предметом.
type Swatch struct {
	StableFrames int      `toml:"stable_frames"`
	MinCoverage  float64  `toml:"min_coverage"`
	Timeout      Duration `toml:"timeout"`
	Devices      []int    `toml:"devices"`
}

// QR настройки ввода QR кодами.
type QR struct {
	// Dir - директория эталонных изображений; пустая - qrs/ рядом с бинарником.
	Dir     string   `toml:"dir"`
	Timeout Duration `toml:"timeout"`
	Devices []int    `toml:"devices"`
	Watch   bool     `toml:"watch"`
}

// Manual настройки ввода мышью и клавиатурой.
type Manual struct {
	ClickTimeout Duration `toml:"click_timeout"`
	KeyTimeout   Duration `toml:"key_timeout"`
}

// configData структура для сериализации.
type configData struct {
	Language      string  `toml:"language"`
	Method        string  `toml:"method"`
	Rounds        int     `toml:"rounds"`
	CongruentOdds float64 `toml:"congruent_odds"`
	Notifications bool    `toml:"notifications"`
	CatalogFile   string  `toml:"catalog_file,omitempty"`
	ModelsDir     string  `toml:"models_dir,omitempty"`
	Voice         Voice   `toml:"voice"`
	Gesture       Gesture `toml:"gesture"`
	Swatch        Swatch  `toml:"swatch"`
	QR            QR      `toml:"qr"`
	Manual        Manual  `toml:"manual"`
}

func defaults() configData {
	cameras := []int{0, 1, 2}
	return configData{
		Language:      "english",
		Method:        MethodKeys,
		Rounds:        5,
		CongruentOdds: 0.25,
		Notifications: true,
		Voice: Voice{
			GetReady:    dur(time.Second),
			Timeout:     dur(15 * time.Second),
			Wait:        dur(3 * time.Second),
			PhraseLimit: dur(4 * time.Second),
			Pause:       dur(800 * time.Millisecond),
			NoiseFloor:  50.0 / 32768.0,
			Recorders:   []string{"portaudio", "portaudio-direct", "system"},
			Recognizers: []string{"vosk", "google"},
		},
		Gesture: Gesture{
			StableFrames: 10,
			Hold:         dur(1500 * time.Millisecond),
			Timeout:      dur(15 * time.Second),
			Devices:      cameras,
			ModelID:      "hand-landmark",
			PalmModelID:  "palm-detection",
		},
		Swatch: Swatch{
			StableFrames: 8,
			MinCoverage:  0.15,
			Timeout:      dur(15 * time.Second),
			Devices:      cameras,
		},
		QR: QR{
			Timeout: dur(10 * time.Second),
			Devices: cameras,
			Watch:   true,
		},
		Manual: Manual{
			ClickTimeout: dur(10 * time.Second),
			KeyTimeout:   dur(10 * time.Second),
		},
	}
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	data       configData
	env        map[string]string
	configPath string
}

// DefaultPath возвращает путь к config.toml рядом с бинарником или пустую
// строку, если бинарник не найден.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(execPath), "config.toml")
}

// New создаёт конфигурацию из config.toml рядом с бинарником. Если файла
// нет, используются настройки по умолчанию; повреждённый файл - ошибка.
func New() (*Config, error) {
	return Load(DefaultPath())
}

// Load читает конфигурацию из path. Отсутствующий файл - не ошибка.
func Load(path string) (*Config, error) {
	c := &Config{data: defaults(), configPath: path}
	if err := c.load(); err != nil {
		return nil, err
	}
	if err := c.data.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.readEnv()
	return c, nil
}

// load загружает конфигурацию из файла поверх значений по умолчанию.
func (c *Config) load() error {
	if c.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.configPath)
	if os.IsNotExist(err) {
		return nil // Файл не существует, используем defaults
	}
	if err != nil {
		return err
	}

	cfg := defaults()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return fmt.Errorf("разбор %s: %w", c.configPath, err)
	}
	c.data = cfg
	return nil
}

func (d configData) validate() error {
	if d.Language == "" {
		return errors.New("language не задан")
	}
	if !slices.Contains(Methods(), d.Method) {
		return fmt.Errorf("неизвестный способ ответа %q", d.Method)
	}
	if d.Rounds < 1 {
		return fmt.Errorf("rounds должно быть положительным, получено %d", d.Rounds)
	}
	if d.CongruentOdds < 0 || d.CongruentOdds > 1 {
		return fmt.Errorf("congruent_odds должно быть в [0, 1], получено %v", d.CongruentOdds)
	}
	return nil
}

// readEnv запоминает перекрытия из окружения. В файл они не сохраняются.
func (c *Config) readEnv() {
	c.env = make(map[string]string)
	for _, key := range []string{EnvLanguage, EnvMethod, EnvGoogleAPIKey} {
		if v := os.Getenv(key); v != "" {
			c.env[key] = v
		}
	}
}

// save сохраняет конфигурацию в файл. Вызывается под c.mu.
func (c *Config) save() error {
	if c.configPath == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.data); err != nil {
		return err
	}
	return os.WriteFile(c.configPath, buf.Bytes(), 0644)
}

// Save сохраняет текущие настройки (например, чтобы создать файл-образец).
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.save()
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.configPath
}

// Dir возвращает директорию файла конфигурации.
func (c *Config) Dir() string {
	return filepath.Dir(c.Path())
}

// Language возвращает язык каталога и интерфейса.
func (c *Config) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.env[EnvLanguage]; ok {
		return v
	}
	return c.data.Language
}

// SetLanguage устанавливает язык.
func (c *Config) SetLanguage(lang string) error {
	if lang == "" {
		return errors.New("language не задан")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Language = lang
	return c.save()
}

// Method возвращает способ ответа.
func (c *Config) Method() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.env[EnvMethod]; ok {
		return v
	}
	return c.data.Method
}

// SetMethod устанавливает способ ответа.
func (c *Config) SetMethod(method string) error {
	if !slices.Contains(Methods(), method) {
		return fmt.Errorf("неизвестный способ ответа %q", method)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Method = method
	return c.save()
}

// Rounds возвращает число вопросов в сессии.
func (c *Config) Rounds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Rounds
}

// CongruentOdds возвращает долю вопросов, где слово и цвет совпадают.
func (c *Config) CongruentOdds() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.CongruentOdds
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Notifications = !c.data.Notifications
	return c.data.Notifications, c.save()
}

// CatalogFile возвращает путь к внешнему каталогу цветов ("" - встроенный).
func (c *Config) CatalogFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.CatalogFile
}

// ModelsDir возвращает директорию моделей ("" - models/ рядом с бинарником).
func (c *Config) ModelsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ModelsDir
}

// Voice возвращает настройки голосового ввода.
func (c *Config) Voice() Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.data.Voice
	v.Recorders = slices.Clone(v.Recorders)
	v.Recognizers = slices.Clone(v.Recognizers)
	if key, ok := c.env[EnvGoogleAPIKey]; ok {
		v.GoogleAPIKey = key
	}
	return v
}

// Gesture возвращает настройки ввода жестами.
func (c *Config) Gesture() Gesture {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g := c.data.Gesture
	g.Devices = slices.Clone(g.Devices)
	return g
}

// Swatch возвращает настройки ввода цветным предметом.
func (c *Config) Swatch() Swatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.data.Swatch
	s.Devices = slices.Clone(s.Devices)
	return s
}

// QR возвращает настройки ввода QR кодами. Относительный Dir считается от
// директории конфигурации.
func (c *Config) QR() QR {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q := c.data.QR
	q.Devices = slices.Clone(q.Devices)
	if q.Dir == "" {
		q.Dir = "qrs"
	}
	if !filepath.IsAbs(q.Dir) && c.configPath != "" {
		q.Dir = filepath.Join(filepath.Dir(c.configPath), q.Dir)
	}
	return q
}

// Manual возвращает настройки ввода мышью и клавиатурой.
func (c *Config) Manual() Manual {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Manual
}

// Ключи, которые меняет Set.
const (
	KeyLanguage      = "language"
	KeyMethod        = "method"
	KeyRounds        = "rounds"
	KeyCongruentOdds = "congruent_odds"
	KeyNotifications = "notifications"
)

// SettableKeys возвращает ключи, которые принимает Set.
func SettableKeys() []string {
	return []string{KeyLanguage, KeyMethod, KeyRounds, KeyCongruentOdds, KeyNotifications}
}

// ErrUnknownKey - ключ не поддерживается Set.
var ErrUnknownKey = errors.New("unknown config key")

// Set разбирает value для ключа верхнего уровня и сохраняет файл.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyLanguage:
		return c.SetLanguage(value)
	case KeyMethod:
		return c.SetMethod(value)
	case KeyNotifications:
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}
		if on == c.NotificationsEnabled() {
			return nil
		}
		_, err = c.ToggleNotifications()
		return err
	case KeyRounds:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("rounds: %w", err)
		}
		return c.update(func(d *configData) { d.Rounds = n })
	case KeyCongruentOdds:
		odds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("congruent_odds: %w", err)
		}
		return c.update(func(d *configData) { d.CongruentOdds = odds })
	default:
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
}

// update применяет fn к копии настроек и сохраняет её, если она корректна.
func (c *Config) update(fn func(*configData)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.data
	fn(&next)
	if err := next.validate(); err != nil {
		return err
	}
	c.data = next
	return c.save()
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	on, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("notifications: ожидается on или off, получено %q", value)
	}
	return on, nil
}
