package client

type ActivityType int

const (
	Playing   ActivityType = 0
	Listening ActivityType = 2
	Watching  ActivityType = 3
	Competing ActivityType = 5
)

type Button struct {
	Label string `json:"label"`
	Url   string `json:"url"`
}

type Party struct {
	ID   string `json:"id,omitempty"`
	Size []int  `json:"size,omitempty"` // [current, max]
}

type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type Activity struct {
	Type       ActivityType      `json:"type,omitempty"`
	State      string            `json:"state,omitempty"`
	Details    string            `json:"details,omitempty"`
	Timestamps *Timestamps       `json:"timestamps,omitempty"`
	Assets     *Assets           `json:"assets,omitempty"`
	Party      *Party            `json:"party,omitempty"`
	Secrets    map[string]string `json:"secrets,omitempty"`
	Buttons    []Button          `json:"buttons,omitempty"`
}

func (a Activity) IsEmpty() bool {
	return a.State == "" &&
		a.Details == "" &&
		a.Timestamps == nil &&
		a.Assets == nil &&
		a.Party == nil &&
		len(a.Secrets) == 0 &&
		len(a.Buttons) == 0
}

// payloadFields builds the sparse activity object SET_ACTIVITY expects,
// leaving out everything unset so discord does not render empty fields.
func (a Activity) payloadFields() map[string]any {
	out := map[string]any{}

	out["type"] = int(a.Type) // Playing=0, Streaming=1, etc

	if a.State != "" {
		out["state"] = a.State
	}
	if a.Details != "" {
		out["details"] = a.Details
	}
	if a.Timestamps != nil && (a.Timestamps.Start != 0 || a.Timestamps.End != 0) {
		out["timestamps"] = a.Timestamps
	}
	if a.Party != nil && len(a.Party.Size) == 2 {
		out["party"] = a.Party
	}
	if len(a.Secrets) > 0 {
		out["secrets"] = a.Secrets
	}
	if len(a.Buttons) > 0 {
		out["buttons"] = a.Buttons
	}

	if a.Assets != nil {
		assets := map[string]any{}
		if a.Assets.LargeImage != "" {
			assets["large_image"] = a.Assets.LargeImage
			if a.Assets.LargeText == "" {
				assets["large_text"] = a.State
			} else {
				assets["large_text"] = a.Assets.LargeText
			}
		}
		if a.Assets.SmallImage != "" {
			assets["small_image"] = a.Assets.SmallImage
			if a.Assets.SmallText == "" {
				assets["small_text"] = a.State
			} else {
				assets["small_text"] = a.Assets.SmallText
			}
		}
		out["assets"] = assets
	}

	return out
}
