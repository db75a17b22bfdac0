// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles is the cerechat color palette and lip gloss styles.

All colors are lipgloss.AdaptiveColor so they follow the terminal's
light or dark background. ApplyTheme pins the mode when the config names
"dark" or "light", and DisableColor drops to the ASCII profile.

# Transcript Lines

Theme.TranscriptLine colors the speaker prefix of a transcript line:

	You: ...        - Cyan, bold
	Assistant: ...  - Purple
	Error: ...      - Rose, bold

# Status Helpers

RenderSuccess, RenderError, RenderWarning and RenderInfo pair a color
with a shape indicator so status survives colorblindness and NO_COLOR.
*/
package styles
