package collect

// Split groups files into blocks in order. A block is closed as soon as its
// total size reaches maxBlock. A trailing block smaller than a quarter of
// maxBlock is merged into the block before it, so the last archive may exceed
// maxBlock by up to 25%.
//
// A maxBlock of zero or less puts every file into a single block.
func Split(files []File, maxBlock int64) [][]File {
	if len(files) == 0 {
		return nil
	}
	if maxBlock <= 0 {
		return [][]File{files}
	}

	var (
		blocks [][]File
		cur    []File
		size   int64
	)
	for _, f := range files {
		cur = append(cur, f)
		size += f.Size
		if size >= maxBlock {
			blocks = append(blocks, cur)
			cur = nil
			size = 0
		}
	}

	if len(cur) > 0 {
		if size < maxBlock/4 && len(blocks) > 0 {
			blocks[len(blocks)-1] = append(blocks[len(blocks)-1], cur...)
		} else {
			blocks = append(blocks, cur)
		}
	}
	return blocks
}

// BlockSize returns the total size of the files in a block.
func BlockSize(block []File) int64 {
	var n int64
	for _, f := range block {
		n += f.Size
	}
	return n
}
