package auto_install

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// mainMenu lists every profile field with its value, followed by the entry that begins
// the installation.
func (c *Configurator) mainMenu() *selectScreen {
	keys := FieldKeys()
	return &selectScreen{
		prompt: c.translator.Get("tui_main_prompt"),
		items: func() []string {
			labels := make([]string, len(keys))
			width := 0
			for n, fieldKey := range keys {
				labels[n] = c.translator.Get("field_" + fieldKey)
				width = max(width, lipgloss.Width(labels[n]))
			}
			items := make([]string, 0, len(keys)+1)
			for n, fieldKey := range keys {
				value, _ := c.profile.Get(fieldKey)
				if value == "" {
					value = c.translator.Get("tui_unset")
				}
				padding := strings.Repeat(" ", width-lipgloss.Width(labels[n]))
				items = append(items, padding+labels[n]+"  ->  "+value)
			}
			return append(items, c.translator.Get("tui_begin"))
		},
		onSelect: func(index int) tea.Cmd {
			if index == len(keys) {
				return c.begin()
			}
			return c.editField(keys[index])
		},
		onCancel: c.cancel,
	}
}

func (c *Configurator) begin() tea.Cmd {
	if c.profile.Device != "" {
		return c.finish()
	}
	c.openDevicePicker(c.finish)
	return nil
}

func (c *Configurator) editField(fieldKey string) tea.Cmd {
	kind, err := c.profile.Kind(fieldKey)
	if err != nil {
		c.messages.Error("%v", err)
		return nil
	}
	switch kind {
	case FieldBool:
		c.openBoolScreen(fieldKey)
	case FieldDevice:
		c.openDevicePicker(nil)
	case FieldTimeZone:
		c.openTimeZonePicker()
	default:
		return c.openInputScreen(fieldKey)
	}
	return nil
}

func (c *Configurator) openBoolScreen(fieldKey string) {
	current, _ := c.profile.Get(fieldKey)
	s := &selectScreen{
		prompt: c.translator.Get("tui_prompt_" + fieldKey),
		items: staticItems([]string{
			c.translator.Get("tui_option_" + fieldKey + "_no"),
			c.translator.Get("tui_option_" + fieldKey + "_yes"),
		}),
		onSelect: func(index int) tea.Cmd {
			if err := c.profile.Set(fieldKey, index == 1); err != nil {
				c.messages.Error("%v", err)
			}
			c.pop()
			return nil
		},
		onCancel: func() tea.Cmd { c.pop(); return nil },
	}
	if current == "true" {
		s.cursor = 1
	}
	c.push(s)
}

// openDevicePicker lets the user choose the device to format. A device that already
// contains partitions needs to be confirmed. Devices that can't be used keep the list
// open with the reason shown below it. Once a device is chosen, the interface
// returns to the main menu and calls then, if given.
func (c *Configurator) openDevicePicker(then func() tea.Cmd) {
	headings, rows, err := c.scanner.DeviceTable(c.ctx)
	if err != nil {
		c.messages.Error("%v", err)
		return
	}
	accept := func(device string) tea.Cmd {
		c.profile.Device = device
		c.popToMain()
		if then != nil {
			return then()
		}
		return nil
	}
	picker := &selectScreen{
		prompt:   c.translator.Get("tui_prompt_device"),
		headings: headings,
		items:    staticItems(rows),
		onCancel: func() tea.Cmd { c.pop(); return nil },
	}
	picker.onSelect = func(index int) tea.Cmd {
		fields := strings.Fields(rows[index])
		if len(fields) == 0 {
			c.messages.Error("Missing path for device: %s", rows[index])
			return nil
		}
		device := fields[0]
		if err := c.scanner.ValidateDevice(c.ctx, device, c.profile.MinDeviceBytes); err != nil {
			c.messages.Error("The selected device does not meet the minimum requirements for installation")
			c.messages.Error("%v", err)
			return nil
		}
		hasPartitions, err := c.scanner.HasPartitions(c.ctx, device)
		if err != nil {
			c.messages.Error("%v", err)
			return nil
		}
		if !hasPartitions {
			return accept(device)
		}
		c.push(&selectScreen{
			prompt: c.translator.Get("tui_prompt_confirm_format"),
			items: staticItems([]string{
				c.translator.Get("tui_option_confirm_no"),
				c.translator.GetVar("tui_option_confirm_yes", StringMap{"device": device}),
			}),
			onSelect: func(index int) tea.Cmd {
				if index == 1 {
					return accept(device)
				}
				c.pop()
				return nil
			},
			onCancel: func() tea.Cmd { c.pop(); return nil },
		})
		return nil
	}
	if current := c.profile.Device; current != "" {
		for n, row := range rows {
			if fields := strings.Fields(row); len(fields) > 0 && fields[0] == current {
				picker.cursor = n
			}
		}
	}
	c.push(picker)
}

func (c *Configurator) openTimeZonePicker() {
	zones, err := c.scanner.TimeZones(c.ctx)
	if err != nil {
		c.messages.Error("%v", err)
		return
	}
	s := &selectScreen{
		prompt: c.translator.Get("tui_prompt_time_zone"),
		items:  staticItems(zones),
		onSelect: func(index int) tea.Cmd {
			if err := c.profile.Set("time_zone", zones[index]); err != nil {
				c.messages.Error("%v", err)
			}
			c.pop()
			return nil
		},
		onCancel: func() tea.Cmd { c.pop(); return nil },
	}
	if n := slices.Index(zones, c.profile.TimeZone); n >= 0 {
		s.cursor = n
	}
	c.push(s)
}

// Input screen

var (
	inputKeyApply  = key.NewBinding(key.WithKeys("enter"))
	inputKeyCancel = key.NewBinding(key.WithKeys("esc"))
	hintStyle      = lipgloss.NewStyle().Faint(true)
)

type inputScreen struct {
	fieldKey string
	prompt   string
	input    textinput.Model
}

func (c *Configurator) openInputScreen(fieldKey string) tea.Cmd {
	current, _ := c.profile.Get(fieldKey)
	input := textinput.New()
	input.Prompt = ": "
	input.CharLimit = 256
	input.SetValue(current)
	_, cols := c.innerSize()
	input.Width = max(1, cols-len(input.Prompt)-1)
	cmd := input.Focus()
	c.push(&inputScreen{
		fieldKey: fieldKey,
		prompt:   c.translator.Get("tui_prompt_" + fieldKey),
		input:    input,
	})
	return cmd
}

func (s *inputScreen) update(c *Configurator, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, inputKeyApply):
		if err := c.profile.Set(s.fieldKey, s.input.Value()); err != nil {
			c.messages.Error("%v", err)
		}
		c.pop()
		return nil
	case key.Matches(msg, inputKeyCancel):
		c.pop()
		return nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *inputScreen) view(c *Configurator, lines, cols int) string {
	return s.prompt + "\n\n" + s.input.View() + "\n\n" + hintStyle.Render(c.translator.Get("tui_input_hint"))
}
