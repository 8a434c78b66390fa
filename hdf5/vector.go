package hdf5

// CreateVector creates a one-dimensional dataset sized for vals.
func CreateVector[T Element](loc Location, name string, vals []T, storage ...Storage) (*Dataset, error) {
	return CreateDataset(loc, name, TypeOf[T](), NewDataspace(uint64(len(vals))), firstStorage(storage))
}

// WriteVector writes vals to the whole of the one-dimensional ds.
func WriteVector[T Element](ds *Dataset, vals []T) error {
	arr, err := ArrayFrom(vals, uint64(len(vals)))
	if err != nil {
		return err
	}
	return WriteArray(ds, arr)
}

// ReadVector reads the one-dimensional ds.
func ReadVector[T Element](ds *Dataset) ([]T, error) {
	arr, err := ReadArray[T](ds, 1)
	if err != nil {
		return nil, err
	}
	return arr.Data(), nil
}
