package fetchmeta

import (
	"spool/internal/queue"
	"spool/internal/services/ytdlp"
	"spool/internal/textutil"
)

func applyMetadata(item *queue.Item, meta ytdlp.Metadata) {
	item.Title = textutil.NormalizeTitle(meta.Title, item.SourceRef)
	item.Description = meta.Description
	item.ThumbnailRef = meta.Thumbnail
	item.SourceDuration = meta.DurationSeconds
}
